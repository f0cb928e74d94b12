// Package ui provides the krui terminal dashboard.
//
// # Architecture Overview
//
// The dashboard is a Bubble Tea program. It never talks to Moonraker
// itself: it reads the link's presentation state and calls the link's
// command methods. The link is not safe for concurrent use, so every call
// happens inside Model.Update, which Bubble Tea runs on one goroutine.
//
// The Bubble Tea tick doubles as the link's scheduling tick:
//
//	tickMsg ──→ link.Tick() ──→ copy Snapshot/History/Console ──→ View
//
// # Package Structure
//
//   - app.go: Model, key handling, the tick and Run
//   - header.go: status bar, command bar and the panel frame
//   - panels.go: temperatures, history, running print, toolhead and console
//   - modal.go: confirmation and target temperature dialogs, shutdown overlay
//   - help.go: help overlay built from the key map
//   - keys.go: key bindings
//   - theme.go, style_helpers.go: colors and lipgloss helpers
//   - format.go: value formatting shared by the views
//
// # Views
//
//   - Main: heaters with their targets, job history, and the running print
//   - Toolhead: position, homing, leveling and motion readings
//   - Console: gcode responses and sent commands, with a gcode input line
//
// # Key Bindings
//
//   - 1/2/3: Main, toolhead and console views (F3/F5 toggle as well)
//   - Tab: Switch between heaters and history on the main view
//   - Enter: Edit a heater target, or start the selected job after confirming
//   - a, x, y, z, Q: Home all, home one axis, quad gantry level
//   - p, C: Pause/resume and cancel the running print
//   - ":" : Type a gcode command
//   - F10: Emergency stop; while Klipper is shut down it restarts the firmware
//   - T: Cycle theme (saved to prefs.toml)
//   - F1 or ?: Help, F2 or Ctrl+C: Quit
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Link:      lnk,
//		Prefs:     p,
//		PrefsPath: prefs.DefaultPath(),
//		Endpoint:  cfg.Endpoint,
//		Logger:    logger,
//	})
package ui
