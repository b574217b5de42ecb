package main

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the list view bindings.
type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Toggle        key.Binding
	ToggleAll     key.Binding
	Add           key.Binding
	Remove        key.Binding
	EditPath      key.Binding
	Browse        key.Binding
	EditCommand   key.Binding
	NextCommand   key.Binding
	AddCommand    key.Binding
	RemoveCommand key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", "s"),
			key.WithHelp("enter/s", "start/stop"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "start/stop all"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add row"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "remove row"),
		),
		EditPath: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "edit path"),
		),
		Browse: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "browse"),
		),
		EditCommand: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "edit command"),
		),
		NextCommand: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next command"),
		),
		AddCommand: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "add command"),
		),
		RemoveCommand: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "remove command"),
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
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.ToggleAll, k.Add, k.Browse, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.ToggleAll},
		{k.Add, k.Remove, k.EditPath, k.Browse},
		{k.EditCommand, k.NextCommand, k.AddCommand, k.RemoveCommand},
		{k.Help, k.Quit},
	}
}
