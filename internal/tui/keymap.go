package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the board view.
type KeyMap struct {
	// Navigation
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Actions
	Detail       key.Binding
	Open         key.Binding
	Filter       key.Binding
	Refresh      key.Binding
	Distribution key.Binding
	SaveView     key.Binding
	Export       key.Binding
	Views        key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous lane"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next lane"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous issue"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next issue"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "first issue"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "last issue"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "issue detail"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter issues"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Distribution: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "distribution"),
		),
		SaveView: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save as view"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export csv"),
		),
		Views: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "saved views"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Top, k.Bottom},
		{k.Detail, k.Open, k.Filter, k.Refresh},
		{k.Distribution, k.SaveView, k.Export, k.Views, k.Help, k.Quit},
	}
}
