package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// DialFunc opens a connection to endpoint.
type DialFunc func(ctx context.Context, endpoint string) (Conn, error)

const handshakeTimeout = 10 * time.Second

// DialWebsocket opens a websocket connection with gorilla's dialer.
func DialWebsocket(ctx context.Context, endpoint string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", endpoint, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return conn, nil
}
