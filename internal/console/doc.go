// Package console keeps the printer's gcode console for display in the TUI.
//
// # Overview
//
// Klipper echoes gcode output through notify_gcode_response. krui also
// records the commands the user types and the errors Moonraker returns for
// them. All three end up in one Buffer in arrival order.
//
// # Line Kinds
//
// Lines received from the printer are classified by prefix:
//
//   - "!!" marks an error (move out of range, unknown command, shutdown)
//   - "//" marks an informational echo
//   - anything else is a plain response such as "ok" or a temperature report
//
// Commands typed by the user are KindCommand.
//
// # Retention
//
// New(0) keeps every line for the life of the process. A positive limit
// turns the buffer into a ring that drops the oldest line on overflow.
// Tail(n) returns the last n lines oldest first, so a view can render the
// bottom of the console without copying the whole history.
//
// # Concurrency
//
// Buffer is not safe for concurrent use. It is owned by the link's consumer
// loop, which runs on the UI goroutine.
package console
