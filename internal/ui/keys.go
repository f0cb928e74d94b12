package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit          key.Binding
	Help          key.Binding
	CycleTheme    key.Binding
	Tab           key.Binding
	Escape        key.Binding
	EmergencyStop key.Binding

	// View switching
	ViewMain     key.Binding
	ViewToolhead key.Binding
	ViewConsole  key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Printer actions
	HomeAll     key.Binding
	HomeX       key.Binding
	HomeY       key.Binding
	HomeZ       key.Binding
	QGL         key.Binding
	PauseResume key.Binding
	CancelPrint key.Binding

	// Console
	GCode        key.Binding
	ToggleFollow key.Binding

	// Modal/input
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "f2"),
			key.WithHelp("F2", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1", "?"),
			key.WithHelp("F1/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Heaters/history"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),
		EmergencyStop: key.NewBinding(
			key.WithKeys("f10"),
			key.WithHelp("F10", "Emergency stop / firmware restart"),
		),

		// View switching
		ViewMain: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Main view"),
		),
		ViewToolhead: key.NewBinding(
			key.WithKeys("2", "f3"),
			key.WithHelp("2/F3", "Toolhead view"),
		),
		ViewConsole: key.NewBinding(
			key.WithKeys("3", "f5"),
			key.WithHelp("3/F5", "Console view"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdown", "Page down"),
		),

		// Printer actions
		HomeAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Home all axes"),
		),
		HomeX: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Home X"),
		),
		HomeY: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Home Y"),
		),
		HomeZ: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "Home Z"),
		),
		QGL: key.NewBinding(
			key.WithKeys("Q"),
			key.WithHelp("Q", "Quad gantry level"),
		),
		PauseResume: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Pause/resume print"),
		),
		CancelPrint: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Cancel print"),
		),

		// Console
		GCode: key.NewBinding(
			key.WithKeys(":", "i"),
			key.WithHelp(":", "Send gcode"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle follow"),
		),

		// Modal/input
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("esc", "n"),
			key.WithHelp("esc/n", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.EmergencyStop, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Navigation
		{k.ViewMain, k.ViewToolhead, k.ViewConsole, k.Tab},
		{k.Up, k.Down, k.Top, k.Bottom, k.Confirm},
		// Printer
		{k.HomeAll, k.HomeX, k.HomeY, k.HomeZ, k.QGL},
		{k.PauseResume, k.CancelPrint, k.EmergencyStop},
		// Console
		{k.GCode, k.ToggleFollow, k.PageUp, k.PageDown},
		// General
		{k.CycleTheme, k.Help, k.Quit},
	}
}
