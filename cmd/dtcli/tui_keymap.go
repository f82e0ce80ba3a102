package main

import (
	"github.com/charmbracelet/bubbles/key"
)

// runKeyMap defines the key bindings for the run progress view
type runKeyMap struct {
	Help   key.Binding
	Quit   key.Binding
	Cancel key.Binding
}

func (k runKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel, k.Help, k.Quit}
}

func (k runKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{
			key.NewBinding(key.WithKeys(""), key.WithHelp("", "Jobs")),
			k.Cancel,
		},
		{
			key.NewBinding(key.WithKeys(""), key.WithHelp("", "General")),
			k.Help,
			k.Quit,
		},
	}
}

var runKeys = runKeyMap{
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "stop following queued/running jobs"),
	),
}
