package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/frontendtony/curfew/internal/supervisor"
)

func (m Model) renderServerPanel(width, height int) string {
	focused := m.focusedPanel == PanelServer
	innerWidth := width - 2 // border

	lines := m.serverLines()

	contentHeight := height - 2
	for len(lines) < contentHeight {
		lines = append(lines, "")
	}
	if len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}

	borderColor := colorSubtle
	if focused {
		borderColor = colorAccent
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(innerWidth).
		Height(contentHeight).
		Render(strings.Join(lines, "\n"))
}

func (m Model) serverLines() []string {
	dim := lipgloss.NewStyle().Foreground(colorDim)
	if !m.haveStatus {
		return []string{dim.Render(" Waiting for first check...")}
	}
	s := m.status

	row := func(label, value string) string {
		return fmt.Sprintf(" %s %s", dim.Render(fmt.Sprintf("%-10s", label)), value)
	}

	style := phaseStyle(s.Phase)
	lines := []string{
		" " + style.Render(phaseIcon(s.Phase)+" "+string(s.Phase)),
		"",
	}

	if s.Phase == supervisor.PhaseRunning {
		lines = append(lines,
			row("pid", strconv.Itoa(s.PID)),
			row("run", shortID(s.RunID)),
			row("uptime", formatUptime(m.now().Sub(s.StartedAt))),
		)
	}

	window := s.Window
	if s.WindowOpen {
		window += " (open)"
	} else {
		window += " (closed)"
	}
	lines = append(lines, row("window", window))

	if s.MinutesLeft >= 0 {
		left := FormatMinutes(s.MinutesLeft)
		if s.MinutesLeft <= supervisor.WarningThresholds[0] {
			left = lipgloss.NewStyle().Foreground(colorWarn).Render(left)
		}
		lines = append(lines, row("closes in", left))
	}
	if !s.NextTransition.IsZero() {
		verb := "closes"
		if s.NextOpens {
			verb = "opens"
		}
		lines = append(lines, row("next", fmt.Sprintf("%s at %s", verb, s.NextTransition.Format("Mon 15:04"))))
	}
	if len(s.WarningsSent) > 0 {
		sent := make([]string, len(s.WarningsSent))
		for i, w := range s.WarningsSent {
			sent[i] = strconv.Itoa(w) + "m"
		}
		lines = append(lines, row("warned", strings.Join(sent, ", ")))
	}

	lines = append(lines,
		"",
		row("ledger", fmt.Sprintf("%d/%d starts in %s", s.RecentStarts, supervisor.CrashThreshold, supervisor.CrashHorizon)),
	)
	if !s.RestartsAfter.IsZero() {
		lines = append(lines, row("resumes", s.RestartsAfter.Format("15:04:05")))
	}
	lines = append(lines,
		row("starts", strconv.Itoa(s.Starts)),
		row("crashes", strconv.Itoa(s.Crashes)),
		row("last", string(s.LastAction)+" @ "+s.Time.Format("15:04:05")),
	)
	return lines
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
