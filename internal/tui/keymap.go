package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Tab        key.Binding
	Logs       key.Binding
	FullScreen key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	Top:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "oldest output")),
	Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "follow output")),
	Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
	Logs:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "focus console")),
	FullScreen: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fullscreen console")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
