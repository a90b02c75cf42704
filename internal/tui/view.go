package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	panelHeight := m.height - 1
	status := m.renderStatusBar()

	if m.fullScreenLogs {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderLogPanel(m.width, panelHeight), status)
	}

	left := m.renderServerPanel(m.serverPanelWidth(), panelHeight)
	right := m.renderLogPanel(m.logPanelWidth(), panelHeight)

	panels := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return lipgloss.JoinVertical(lipgloss.Left, panels, status)
}
