package panel

import "charm.land/bubbles/v2/key"

// panelKeyMap defines key bindings for the panel.
type panelKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	SwapPane key.Binding
	Quit     key.Binding
	Back     key.Binding

	AddTopic    key.Binding
	RenameTopic key.Binding
	DeleteTopic key.Binding
	SetCurrent  key.Binding
	Bookmark    key.Binding
	EditTitle   key.Binding
	Preview     key.Binding
	Refresh     key.Binding
}

func defaultPanelKeyMap() panelKeyMap {
	return panelKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		SwapPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),

		AddTopic: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add topic"),
		),
		RenameTopic: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename topic"),
		),
		DeleteTopic: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete topic"),
		),
		SetCurrent: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "set current topic"),
		),
		Bookmark: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bookmark message"),
		),
		EditTitle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "edit title"),
		),
		Preview: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "preview message"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
	}
}
