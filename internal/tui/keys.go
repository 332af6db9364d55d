package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard key bindings
type KeyMap struct {
	Monitor   key.Binding
	Occupancy key.Binding
	Recognize key.Binding
	Scan      key.Binding
	Clear     key.Binding

	// Confirmation prompt
	Confirm key.Binding
	Cancel  key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set
var DefaultKeyMap = KeyMap{
	Monitor: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "monitoring"),
	),
	Occupancy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "occupancy"),
	),
	Recognize: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "recognize"),
	),
	Scan: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "QR sign-in"),
	),
	Clear: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear sign-ins"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n", "cancel"),
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

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Monitor, k.Occupancy, k.Scan, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Monitor, k.Occupancy, k.Recognize},
		{k.Scan, k.Clear},
		{k.Help, k.Quit},
	}
}
