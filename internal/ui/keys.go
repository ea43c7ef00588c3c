package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Top       key.Binding
	Bottom    key.Binding
	SortLeft  key.Binding
	SortRight key.Binding
	Reverse   key.Binding
	Slower    key.Binding
	Faster    key.Binding
	Reset     key.Binding
	Filter    key.Binding
	Attach    key.Binding
	Help      key.Binding
	Quit      key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reset, k.SortLeft, k.SortRight, k.Slower, k.Faster, k.Filter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.SortLeft, k.SortRight, k.Reverse},
		{k.Slower, k.Faster, k.Reset},
		{k.Filter, k.Attach, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "page down"),
	),
	Top: key.NewBinding(
		key.WithKeys("s", "home"),
		key.WithHelp("s/home", "start"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("e", "end"),
		key.WithHelp("e/end", "end"),
	),
	SortLeft: key.NewBinding(
		key.WithKeys("<", "left"),
		key.WithHelp("<", "sort left"),
	),
	SortRight: key.NewBinding(
		key.WithKeys(">", "right"),
		key.WithHelp(">", "sort right"),
	),
	Reverse: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reverse sort"),
	),
	Slower: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "incr interval"),
	),
	Faster: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "decr interval"),
	),
	Reset: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "reset"),
	),
	Filter: key.NewBinding(
		key.WithKeys("f", "/"),
		key.WithHelp("f", "filter"),
	),
	Attach: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "attach pid"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
	),
}
