// Package config loads krui's TOML configuration.
//
// # Overview
//
// krui needs to know where Moonraker listens, where to write its own log,
// and a handful of tuning values for the link. All of them have defaults,
// so running without a config file works against a printer on localhost.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/krui/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// A positional endpoint on the command line overrides the file through
// SetEndpoint.
//
// # TOML Format
//
//	endpoint = "voron.local:7125"         # ws://127.0.0.1:7125/websocket
//	log_file = "~/.local/state/krui/krui.log"
//	log_level = "info"                    # debug, info, warn, error
//	client_name = "krui"
//	history_limit = 50                    # jobs fetched per handshake
//	console_limit = 0                     # 0 keeps every console line
//	reconnect_min = "500ms"               # "0s" retries immediately
//	reconnect_max = "30s"
//	read_timeout = "60s"                  # "0s" disables the read deadline
//
// # Endpoint Normalisation
//
// Endpoints go through moonraker.ParseEndpoint:
//
//   - "host:port" becomes "ws://host:port/websocket"
//   - http and https map to ws and wss
//   - an empty path becomes /websocket
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML syntax errors
//   - Values that are present but invalid: unknown log levels, unparseable
//     or negative durations, reconnect_min above reconnect_max
//
// Errors are wrapped with the offending key so the message points at the
// line to fix.
package config
