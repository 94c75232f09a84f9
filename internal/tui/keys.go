package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Start  key.Binding
	Pause  key.Binding
	Reset  key.Binding
	Commit key.Binding
	Report key.Binding
	Help   key.Binding
	Enter  key.Binding
	Back   key.Binding
	Up     key.Binding
	Down   key.Binding
	Quit   key.Binding
	Abort  key.Binding
}

var keys = keyMap{
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start"),
	),
	Pause: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space", "pause/resume"),
	),
	Reset: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reset"),
	),
	Commit: key.NewBinding(
		key.WithKeys("enter", "c"),
		key.WithHelp("enter", "save period"),
	),
	Report: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "report"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "show total"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Abort: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

// screenKeys is the help.KeyMap shown for one screen.
type screenKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k screenKeys) ShortHelp() []key.Binding { return k.short }
func (k screenKeys) FullHelp() [][]key.Binding { return k.full }

func (k keyMap) forScreen(s screen) help.KeyMap {
	switch s {
	case screenSummary:
		save := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save"))
		cancel := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
		return screenKeys{
			short: []key.Binding{save, cancel},
			full:  [][]key.Binding{{save, cancel}},
		}
	case screenReport:
		return screenKeys{
			short: []key.Binding{k.Up, k.Down, k.Enter, k.Back, k.Help, k.Quit},
			full: [][]key.Binding{
				{k.Up, k.Down},
				{k.Enter, k.Back},
				{k.Help, k.Quit},
			},
		}
	}
	return screenKeys{
		short: []key.Binding{k.Start, k.Pause, k.Commit, k.Report, k.Help, k.Quit},
		full: [][]key.Binding{
			{k.Start, k.Pause, k.Reset},
			{k.Commit, k.Report},
			{k.Help, k.Quit},
		},
	}
}
