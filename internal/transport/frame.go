package transport

// FrameKind identifies what a Frame carries.
type FrameKind int

const (
	// FrameText is a payload-bearing message.
	FrameText FrameKind = iota
	// FramePong answers a ping received from the server.
	FramePong
	// FrameClose ends a session. On the outbound queue it asks the writer
	// to close the socket; on the inbound queue it reports the session died.
	FrameClose
	// FrameOpen reports that a new session is ready for the handshake.
	FrameOpen
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	case FrameOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Frame is one unit moving through a session's queues. Session is the
// generation of the session that produced it, so the consumer can ignore
// frames from a connection it already gave up on.
type Frame struct {
	Kind    FrameKind
	Data    []byte
	Session uint64
	Err     error

	session *Session
}
