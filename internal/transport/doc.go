// Package transport keeps a websocket connection to Moonraker open and turns
// it into a stream of frames the consumer can poll without blocking.
//
// # Overview
//
// A Session owns one physical connection and runs two workers:
//
//	                outbound Queue                inbound Queue
//	consumer ──Send──→ [text|pong|close] ──→ writeLoop ──→ socket
//	socket ──→ readLoop ──→ [text|close] ──Poll──→ consumer
//
// The queues are unbounded and safe for many producers. The consumer and
// the inbound worker both push onto the outbound queue: the consumer sends
// requests, the inbound worker answers pings. A ping never reaches the
// consumer.
//
// # Failure Handling
//
// Any read or write error is fatal for the session. The first one pushes a
// Close frame onto both queues: the writer then closes the socket and
// exits, and the consumer learns the session is gone. Later errors on the
// same session are ignored, so the consumer sees exactly one Close per
// session.
//
// Closing a session on purpose (Session.Close) follows the same path. The
// writer flushes what is already queued, sends a websocket close frame and
// drops the socket; the reader's resulting error produces the Close frame.
//
// # Supervisor
//
// The Supervisor owns the lifecycle:
//
//	Disconnected ──Start──→ Connecting ──dial ok──→ Handshaking ──MarkLive──→ Live
//	      ↑                     ↑                                              │
//	      └──── Stop            └──────────────── Close frame ─────────────────┘
//
// Dialing runs on a background goroutine and retries with capped
// exponential backoff (MinBackoff doubling up to MaxBackoff). A MinBackoff
// of zero retries immediately. A successful dial is reported to the
// consumer as an Open frame.
//
// Every session gets a new generation number and every frame carries the
// generation of the session that produced it. Poll drops frames whose
// generation is not the current session's, so a late Close from a
// connection that was already replaced cannot tear down its successor.
//
// # Concurrency
//
// Supervisor methods other than Start's background dialing are meant to be
// called from a single consumer goroutine. That goroutine is the only one
// that reads or changes the state and the current session.
package transport
