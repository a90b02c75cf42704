package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.logViewport = viewport.New(m.logPanelInnerWidth(), m.panelContentHeight())
			m.ready = true
		} else {
			m.resizeViewport()
		}
		m.refreshStatus()
		m.updateLogContent()

	case tickMsg:
		m.refreshStatus()
		m.updateLogContent()
		cmds = append(cmds, tickEvery())

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirmQuit {
		if msg.String() == "y" {
			return tea.Quit
		}
		m.confirmQuit = false
		return nil
	}

	if m.showHelp {
		if key.Matches(msg, keys.Help) || msg.String() == "esc" {
			m.showHelp = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m.handleQuit()
	case key.Matches(msg, keys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, keys.FullScreen):
		m.fullScreenLogs = !m.fullScreenLogs
		if m.fullScreenLogs {
			m.focusedPanel = PanelLogs
		}
		m.resizeViewport()
		m.updateLogContent()
		return nil
	}

	if m.focusedPanel == PanelLogs {
		return m.handleLogPanelKey(msg)
	}
	if key.Matches(msg, keys.Tab) || key.Matches(msg, keys.Logs) {
		m.focusedPanel = PanelLogs
	}
	return nil
}

func (m *Model) handleLogPanelKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Tab):
		if !m.fullScreenLogs {
			m.focusedPanel = PanelServer
		}
	case key.Matches(msg, keys.Top):
		m.logViewport.GotoTop()
		m.autoScroll = false
	case key.Matches(msg, keys.Bottom):
		m.logViewport.GotoBottom()
		m.autoScroll = true
	default:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		m.autoScroll = m.logViewport.AtBottom()
		return cmd
	}
	return nil
}

// handleQuit asks for confirmation while the server is up, since leaving
// the dashboard shuts the supervisor down and stops the server.
func (m *Model) handleQuit() tea.Cmd {
	if m.serverRunning() {
		m.confirmQuit = true
		return nil
	}
	return tea.Quit
}

func (m *Model) resizeViewport() {
	if !m.ready {
		return
	}
	m.logViewport.Width = m.logPanelInnerWidth()
	m.logViewport.Height = m.panelContentHeight()
}

func (m Model) serverPanelWidth() int {
	w := m.width * 2 / 5
	if w < 32 {
		w = 32
	}
	return w
}

func (m Model) logPanelWidth() int {
	if m.fullScreenLogs {
		return m.width
	}
	return m.width - m.serverPanelWidth()
}

func (m Model) logPanelInnerWidth() int {
	return m.logPanelWidth() - 4
}

func (m Model) panelContentHeight() int {
	return m.height - 3
}
