package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Enter     key.Binding
	Interrupt key.Binding
	Clear     key.Binding
	Quit      key.Binding
	Escape    key.Binding
}

var keys = keyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
	),
	Interrupt: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+l"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+d"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
	),
}
