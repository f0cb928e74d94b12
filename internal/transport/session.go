package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrSessionClosed is returned when sending on a session that has ended.
var ErrSessionClosed = errors.New("session closed")

const (
	// closeWriteWait bounds how long the writer waits to deliver a close frame.
	closeWriteWait = time.Second
	// writeWait bounds text and pong writes.
	writeWait = 10 * time.Second
)

// Conn is the part of *websocket.Conn a session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetPingHandler(h func(appData string) error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session owns one websocket connection. An outbound worker drains the send
// queue into the socket and an inbound worker pushes received messages onto
// the consumer queue. A fatal error on either side pushes exactly one Close
// frame to the consumer.
type Session struct {
	id          uint64
	conn        Conn
	outbound    *Queue[Frame]
	inbound     *Queue[Frame]
	readTimeout time.Duration
	logger      zerolog.Logger

	failOnce sync.Once
	done     chan struct{}
}

func newSession(id uint64, conn Conn, inbound *Queue[Frame], readTimeout time.Duration, logger zerolog.Logger) *Session {
	return &Session{
		id:          id,
		conn:        conn,
		outbound:    NewQueue[Frame](),
		inbound:     inbound,
		readTimeout: readTimeout,
		logger:      logger.With().Uint64("session", id).Logger(),
		done:        make(chan struct{}),
	}
}

// ID returns the session generation.
func (s *Session) ID() uint64 {
	return s.id
}

// Done is closed once both workers have exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Send queues a text message. It never blocks.
func (s *Session) Send(data []byte) error {
	if !s.outbound.Push(Frame{Kind: FrameText, Data: data, Session: s.id}) {
		return ErrSessionClosed
	}
	return nil
}

// Close asks the writer to flush what is queued, send a close frame, and
// drop the socket. The inbound side then reports the session as closed.
func (s *Session) Close() {
	s.outbound.Push(Frame{Kind: FrameClose, Session: s.id})
}

func (s *Session) start() {
	s.conn.SetPingHandler(func(appData string) error {
		s.extendReadDeadline()
		s.outbound.Push(Frame{Kind: FramePong, Data: []byte(appData), Session: s.id})
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()
	go func() {
		defer wg.Done()
		s.readLoop()
	}()
	go func() {
		wg.Wait()
		close(s.done)
	}()
}

func (s *Session) writeLoop() {
	ctx := context.Background()
	for {
		frame, err := s.outbound.Pop(ctx)
		if err != nil {
			return
		}
		switch frame.Kind {
		case FrameText:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame.Data); err != nil {
				s.fail(fmt.Errorf("write: %w", err))
			}
		case FramePong:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PongMessage, frame.Data); err != nil {
				s.fail(fmt.Errorf("write pong: %w", err))
			}
		case FrameClose:
			_ = s.conn.SetWriteDeadline(time.Now().Add(closeWriteWait))
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := s.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
				s.logger.Debug().Err(err).Msg("close frame not delivered")
			}
			s.outbound.Close()
			if err := s.conn.Close(); err != nil {
				s.logger.Debug().Err(err).Msg("close socket")
			}
			return
		}
	}
}

func (s *Session) readLoop() {
	for {
		s.extendReadDeadline()
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.fail(fmt.Errorf("read: %w", err))
			return
		}
		s.inbound.Push(Frame{Kind: FrameText, Data: data, Session: s.id})
	}
}

// extendReadDeadline restarts the silence timer. It runs on the read
// goroutine, from readLoop and from the ping handler.
func (s *Session) extendReadDeadline() {
	if s.readTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
}

// fail tears the session down after a transport fault. Only the first
// fault is reported.
func (s *Session) fail(err error) {
	s.failOnce.Do(func() {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			s.logger.Info().Err(err).Msg("session closed")
		} else {
			s.logger.Warn().Err(err).Msg("session failed")
		}
		s.outbound.Push(Frame{Kind: FrameClose, Session: s.id, Err: err})
		s.inbound.Push(Frame{Kind: FrameClose, Session: s.id, Err: err})
	})
}
