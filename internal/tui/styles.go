package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/frontendtony/curfew/internal/supervisor"
)

var (
	colorRunning  = lipgloss.AdaptiveColor{Light: "#2ECC71", Dark: "#2ECC71"}
	colorCooldown = lipgloss.AdaptiveColor{Light: "#F39C12", Dark: "#F39C12"}
	colorStopped  = lipgloss.AdaptiveColor{Light: "#7F8C8D", Dark: "#7F8C8D"}
	colorWarn     = lipgloss.AdaptiveColor{Light: "#E74C3C", Dark: "#E74C3C"}

	colorAccent = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#10B981"}
	colorSubtle = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#666666"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

func phaseStyle(p supervisor.Phase) lipgloss.Style {
	switch p {
	case supervisor.PhaseRunning:
		return lipgloss.NewStyle().Foreground(colorRunning)
	case supervisor.PhaseCooldown:
		return lipgloss.NewStyle().Foreground(colorCooldown)
	default:
		return lipgloss.NewStyle().Foreground(colorStopped)
	}
}

func phaseIcon(p supervisor.Phase) string {
	switch p {
	case supervisor.PhaseRunning:
		return "●"
	case supervisor.PhaseCooldown:
		return "↻"
	default:
		return "○"
	}
}

func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatMinutes renders a minutes-left count as "1h05m" or "42m".
func FormatMinutes(n int) string {
	if n < 60 {
		return fmt.Sprintf("%dm", n)
	}
	return fmt.Sprintf("%dh%02dm", n/60, n%60)
}
