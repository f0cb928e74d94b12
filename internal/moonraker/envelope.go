package moonraker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const jsonrpcVersion = "2.0"

// ErrUnparseable marks a frame that is neither a response nor a notification.
var ErrUnparseable = errors.New("unparseable frame")

// Request is an outgoing JSON-RPC call.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      string `json:"id"`
}

// Encode renders the request as a text frame payload.
func (r Request) Encode() ([]byte, error) {
	if r.JSONRPC == "" {
		r.JSONRPC = jsonrpcVersion
	}
	if r.Params == nil {
		r.Params = struct{}{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Method, err)
	}
	return data, nil
}

// RPCError is the error member of a failed call.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Kind tells how an inbound frame was classified.
type Kind int

const (
	KindUnparseable Kind = iota
	KindResponse
	KindError
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindError:
		return "error"
	case KindNotification:
		return "notification"
	default:
		return "unparseable"
	}
}

// Inbound is a classified text frame. Responses carry ID and Result, error
// replies carry ID and Err, notifications carry Method and Params.
type Inbound struct {
	Kind   Kind
	ID     string
	Method string
	Result json.RawMessage
	Params json.RawMessage
	Err    *RPCError
}

type envelope struct {
	Method *string          `json:"method"`
	Params json.RawMessage  `json:"params"`
	Result json.RawMessage  `json:"result"`
	Error  *RPCError        `json:"error"`
	ID     *json.RawMessage `json:"id"`
}

// Classify decodes a text frame. Anything with an id and a result is a
// response, an id with an error member is an error reply, and a method
// without an id is a server notification. Everything else is unparseable.
func Classify(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	if id, ok := decodeID(env.ID); ok {
		switch {
		case len(env.Result) > 0:
			return Inbound{Kind: KindResponse, ID: id, Result: env.Result}, nil
		case env.Error != nil:
			return Inbound{Kind: KindError, ID: id, Err: env.Error}, nil
		}
		return Inbound{}, fmt.Errorf("%w: id %q without result", ErrUnparseable, id)
	}

	if env.Method != nil && *env.Method != "" {
		return Inbound{Kind: KindNotification, Method: *env.Method, Params: env.Params}, nil
	}
	return Inbound{}, ErrUnparseable
}

func decodeID(raw *json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	trimmed := bytes.TrimSpace(*raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	var id string
	if err := json.Unmarshal(trimmed, &id); err == nil {
		return id, true
	}
	// Numeric ids never match ours but still mark the frame as a reply.
	return string(trimmed), true
}
