// Package moonraker describes the JSON-RPC 2.0 dialect Moonraker speaks over
// its websocket.
//
// # Overview
//
// The package knows nothing about sockets or printer state. It covers three
// things:
//
//   - envelope.go: outgoing Request encoding and the Classify function that
//     sorts inbound text frames into responses, error replies and
//     notifications
//   - correlator.go: the table of outstanding call ids
//   - types.go / endpoint.go: method names, parameter and result shapes, and
//     endpoint normalisation
//
// # Wire format
//
//	request:      {"jsonrpc":"2.0","method":"server.info","params":{},"id":"<uuid>"}
//	response:     {"jsonrpc":"2.0","result":{...},"id":"<uuid>"}
//	error reply:  {"jsonrpc":"2.0","error":{"code":-32601,"message":"..."},"id":"<uuid>"}
//	notification: {"jsonrpc":"2.0","method":"notify_status_update","params":[{...}, 1234.5]}
//
// # Classification
//
// Classify tries the response shape first (id plus result), then the error
// shape (id plus error), then the notification shape (method, no id).
// Frames matching none of them return ErrUnparseable; callers drop them and
// carry on.
//
// # Correlation
//
// Every call gets a random UUID from Correlator.Issue. Resolve is a single
// lookup-and-remove, so a duplicate reply resolves to nothing the second
// time. There is no expiry: an unanswered call stays pending until Reset,
// which the link calls when the session that carried it goes away.
//
//	c := moonraker.NewCorrelator()
//	req := c.Issue(moonraker.MethodServerInfo, nil)
//	method, ok := c.Resolve(req.ID) // "server.info", true
//	_, ok = c.Resolve(req.ID)       // "", false
//
// # Endpoints
//
// ParseEndpoint accepts "host:port", "http://host:port" or a full ws(s) URL
// and returns the websocket URL, defaulting the path to /websocket.
package moonraker
