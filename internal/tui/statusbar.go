package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderStatusBar() string {
	style := lipgloss.NewStyle().
		Background(lipgloss.Color("#333333")).
		Foreground(lipgloss.Color("#FFFFFF"))

	if m.confirmQuit {
		return style.Width(m.width).Render(" Server is running and will be stopped. Quit? (y/n)")
	}

	left := " waiting"
	if m.haveStatus {
		s := m.status
		left = fmt.Sprintf(" %s · %s", s.Phase, s.Window)
		if s.MinutesLeft >= 0 {
			left += " · " + FormatMinutes(s.MinutesLeft) + " left"
		}
	}

	var hints []string
	if m.focusedPanel == PanelServer {
		hints = append(hints, "tab console", "f fullscreen", "? help", "q quit")
	} else {
		hints = append(hints, "↑/↓ scroll", "G follow", "tab back", "? help")
	}
	right := strings.Join(hints, "  ") + " "

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return style.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}
