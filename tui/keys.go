package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Up          key.Binding
	Down        key.Binding
	Search      key.Binding
	TabAll      key.Binding
	TabPinned   key.Binding
	TabTrash    key.Binding
	New         key.Binding
	Edit        key.Binding
	Rename      key.Binding
	Pin         key.Binding
	Color       key.Binding
	Delete      key.Binding
	Restore     key.Binding
	EmptyTrash  key.Binding
	Save        key.Binding
	Cancel      key.Binding
	SwitchField key.Binding
	Yes         key.Binding
	No          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		TabAll:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		TabPinned:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "pinned")),
		TabTrash:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "trash")),
		New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:        key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("e", "edit")),
		Rename:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Pin:         key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin")),
		Color:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "color")),
		Delete:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Restore:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "restore")),
		EmptyTrash:  key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "empty trash")),
		Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		SwitchField: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "title/body")),
		Yes:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		No:          key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
	}
}
