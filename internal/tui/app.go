package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/frontendtony/curfew/internal/logging"
	"github.com/frontendtony/curfew/internal/supervisor"
)

// Panel represents which UI panel has focus.
type Panel int

const (
	PanelServer Panel = iota
	PanelLogs
)

type tickMsg time.Time

// Model is the dashboard. It only reads: supervisor state comes from the
// Board, server output from the console buffer.
type Model struct {
	board   *supervisor.Board
	console *logging.RingBuffer
	now     func() time.Time

	status     supervisor.Status
	haveStatus bool

	focusedPanel   Panel
	logViewport    viewport.Model
	autoScroll     bool
	showHelp       bool
	fullScreenLogs bool
	confirmQuit    bool
	width, height  int
	ready          bool
}

// NewModel creates the dashboard model.
func NewModel(board *supervisor.Board, console *logging.RingBuffer) Model {
	return Model{
		board:        board,
		console:      console,
		now:          time.Now,
		autoScroll:   true,
		focusedPanel: PanelServer,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) refreshStatus() {
	if s, ok := m.board.Load(); ok {
		m.status = s
		m.haveStatus = true
	}
}

func (m Model) serverRunning() bool {
	return m.haveStatus && m.status.Phase == supervisor.PhaseRunning
}
