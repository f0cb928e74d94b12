package moonraker

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultEndpoint is Moonraker's websocket on the local host.
	DefaultEndpoint = "127.0.0.1:7125"
	websocketPath   = "/websocket"
)

// ParseEndpoint normalises a user supplied address into a websocket URL.
// Bare host:port values get the ws scheme, http(s) schemes are mapped to
// ws(s), and an empty path becomes /websocket.
func ParseEndpoint(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultEndpoint
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "ws://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("parse endpoint %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse endpoint %q: missing host", raw)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = websocketPath
	}
	u.Fragment = ""
	return u, nil
}
