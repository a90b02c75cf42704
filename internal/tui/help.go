package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderHelp() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent).
		Render("curfew - Keybindings")

	sections := []struct {
		header   string
		bindings []string
	}{
		{
			header: "Navigation",
			bindings: []string{
				"Tab     Switch panel focus",
				"l       Focus console panel",
				"f       Fullscreen console",
			},
		},
		{
			header: "Console",
			bindings: []string{
				"↑/k     Scroll up",
				"↓/j     Scroll down",
				"g       Jump to oldest output",
				"G       Follow new output",
			},
		},
		{
			header: "Other",
			bindings: []string{
				"?       Toggle this help",
				"q       Quit (stops the server)",
			},
		},
	}

	var parts []string
	parts = append(parts, title, "")

	for _, s := range sections {
		header := lipgloss.NewStyle().Bold(true).Render(s.header)
		parts = append(parts, header)
		for _, b := range s.bindings {
			parts = append(parts, "  "+b)
		}
		parts = append(parts, "")
	}

	parts = append(parts, lipgloss.NewStyle().Foreground(colorDim).Render("Press ? or Esc to close"))

	content := strings.Join(parts, "\n")

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 3).
			Render(content),
	)
}
