// Package app provides the orchestration layer for krui.
//
// # Overview
//
// This package wires together configuration, logging, the Moonraker
// connection and the UI. It is the composition root where all
// dependencies are initialized and connected.
//
// # Architecture
//
//  1. Load ~/.config/krui/config.toml, applying command-line overrides
//  2. Open the log file; the terminal belongs to the UI
//  3. Load UI preferences (theme, console follow)
//  4. Build the transport supervisor and the link on top of it
//  5. Start connecting, run the TUI, and stop the link when it exits
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()            Read krui config
//	       ├─────> logging.Open()           zerolog file logger
//	       ├─────> transport.NewSupervisor() Dial + reconnect loop
//	       ├─────> link.New()               Handshake, dispatch, snapshot
//	       └─────> ui.Run()                 Start TUI (blocks)
//
//	UI tick loop:
//	┌─────────────────────────────────────────┐
//	│ tickMsg every 100ms                     │
//	│  ├─> link.Tick()   drain inbound frames │
//	│  └─> link.Snapshot() / History()        │
//	│      └─> View()                         │
//	└─────────────────────────────────────────┘
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file unreadable or invalid
//   - Invalid endpoint override
//   - Log file cannot be opened
//
// Everything after startup is recoverable: a dropped connection is
// redialed with backoff and the handshake repeats, so krui survives
// Moonraker and Klipper restarts without user action.
//
// # Usage Example
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := app.Run(ctx, app.Options{Endpoint: "voron.local:7125"}); err != nil {
//		log.Fatalf("krui failed: %v", err)
//	}
package app
