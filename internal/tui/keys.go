package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the looper screen.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Record  key.Binding
	Play    key.Binding
	Loop    key.Binding
	Stop    key.Binding
	Delete  key.Binding
	StopAll key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap provides the default key bindings.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Record: key.NewBinding(
		key.WithKeys("r", " "),
		key.WithHelp("r/space", "record"),
	),
	Play: key.NewBinding(
		key.WithKeys("p", "enter"),
		key.WithHelp("p", "play"),
	),
	Loop: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "loop"),
	),
	Stop: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stop"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete"),
	),
	StopAll: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "stop all"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Play, k.Loop, k.Stop, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Record, k.StopAll},
		{k.Play, k.Loop, k.Stop, k.Delete},
		{k.Help, k.Quit},
	}
}
