package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Escape   key.Binding

	ViewAgent key.Binding
	ViewAudit key.Binding
	ViewPools key.Binding
	ViewJobs  key.Binding

	EditTarget key.Binding
	ToggleTail key.Binding
	LoadMore   key.Binding
	Refresh    key.Binding
	Confirm    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel input"),
		),

		ViewAgent: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Agent leases"),
		),
		ViewAudit: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Audit log"),
		),
		ViewPools: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Device pools"),
		),
		ViewJobs: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "User jobs"),
		),

		EditTarget: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Set agent, issue or user"),
		),
		ToggleTail: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Follow live / freeze"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Load more"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.EditTarget, k.ToggleTail, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewAgent, k.ViewAudit, k.ViewPools, k.ViewJobs, k.Tab, k.ShiftTab},
		{k.EditTarget, k.Confirm, k.Escape},
		{k.ToggleTail, k.LoadMore, k.Refresh},
		{k.Help, k.Quit},
	}
}
