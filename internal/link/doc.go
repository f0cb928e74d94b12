// Package link is the consumer side of krui's Moonraker connection.
//
// # Overview
//
// A Link sits between the transport and the dashboard. The dashboard calls
// Tick on every redraw; Tick drains whatever frames the transport has
// already received and returns without blocking. Everything the link owns
// is only touched from that call:
//
//   - the printer snapshot (state.Printer)
//   - the job history (state.History)
//   - the console buffer
//   - the pending-call table (moonraker.Correlator)
//
// No locks are needed because nothing else touches them.
//
// # Frame Handling
//
//	Open  → run the handshake
//	Close → drop pending calls, mark disconnected (the supervisor redials)
//	Text  → classify as response, error reply or notification
//
// # Handshake
//
// Every new session, and every notify_klippy_ready, sends:
//
//  1. server.connection.identify
//  2. server.info
//  3. printer.objects.list
//  4. server.history.list (newest first, bounded by HistoryLimit)
//
// The identify reply moves the session to Live; Submit refuses to send
// before that. The object list reply triggers printer.objects.query and
// printer.objects.subscribe for every listed object with all fields.
//
// # Response Routing
//
// Replies are routed by the method of the call they answer, looked up by
// id. A reply whose id is unknown, typically from a session that has
// since been replaced, is dropped.
//
//	server.info              → connected = klippy_connected && klippy_state == "ready"
//	printer.objects.list     → query + subscribe
//	printer.objects.query    → merge status
//	printer.objects.subscribe→ merge status
//	server.history.list      → add each job
//	server.files.metadata    → attach to the active print
//
// Whenever a merge leaves the printer printing a file whose metadata is
// not loaded, the link requests it once.
//
// Error replies resolve their call and are logged. Errors for gcode
// scripts are also written to the console.
//
// # Notifications
//
//	notify_klippy_shutdown      → connected = false
//	notify_klippy_disconnected  → connected = false
//	notify_klippy_ready         → connected = true, handshake again
//	notify_status_update        → merge params[0]
//	notify_history_changed      → add job when action is "added"
//	notify_gcode_response       → console
//
// Unknown notifications are logged at debug level and ignored.
//
// # Emergency Stop
//
// EmergencyStop queues printer.emergency_stop, forces the local print
// state to error, and closes the session. The writer sends the stop before
// the close, and the Close frame that follows goes through the normal
// reconnect path.
package link
