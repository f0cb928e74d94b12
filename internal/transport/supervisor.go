package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the connection lifecycle as seen by the consumer.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateLive
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateLive:
		return "live"
	default:
		return "disconnected"
	}
}

// ErrNoSession is returned by Send when no session is open.
var ErrNoSession = errors.New("no open session")

// Options configures a Supervisor.
type Options struct {
	Endpoint    string
	Dial        DialFunc
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	ReadTimeout time.Duration
	Logger      zerolog.Logger
}

// Supervisor keeps one session open at a time and replaces it whenever it
// dies. Dialing happens on a background goroutine; everything else is
// driven by the consumer through Poll, so the state and the current session
// are only touched from the consumer goroutine.
type Supervisor struct {
	opts    Options
	logger  zerolog.Logger
	inbound *Queue[Frame]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// generation is only written by the single dialing goroutine alive at
	// any time, and read back through Open frames.
	generation uint64

	state   State
	current *Session
}

// NewSupervisor returns a supervisor in the Disconnected state.
func NewSupervisor(opts Options) *Supervisor {
	if opts.Dial == nil {
		opts.Dial = DialWebsocket
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	return &Supervisor{
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "transport").Logger(),
		inbound: NewQueue[Frame](),
		state:   StateDisconnected,
	}
}

// Start begins connecting. It returns immediately; the new session is
// announced by an Open frame from Poll.
func (s *Supervisor) Start(ctx context.Context) {
	if s.ctx != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.connect()
}

// Stop cancels dialing, closes the current session, and waits for
// background work to finish.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.current != nil {
		s.current.Close()
		<-s.current.Done()
		s.current = nil
	}
	s.wg.Wait()
	// A dial may have finished before the consumer saw its Open frame.
	for {
		frame, ok := s.inbound.TryPop()
		if !ok {
			break
		}
		if frame.Kind == FrameOpen && frame.session != nil {
			frame.session.Close()
			<-frame.session.Done()
		}
	}
	s.state = StateDisconnected
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return s.state
}

// Session returns the open session, or nil.
func (s *Supervisor) Session() *Session {
	return s.current
}

// MarkLive moves a handshaking session to Live.
func (s *Supervisor) MarkLive() {
	if s.state == StateHandshaking {
		s.state = StateLive
	}
}

// Send queues data on the current session.
func (s *Supervisor) Send(data []byte) error {
	if s.current == nil {
		return ErrNoSession
	}
	return s.current.Send(data)
}

// CloseSession tears down the current session as if it had failed. The
// Close frame that follows triggers a reconnect.
func (s *Supervisor) CloseSession() {
	if s.current != nil {
		s.current.Close()
	}
}

// Poll returns the next frame for the consumer without blocking. Open and
// Close frames update the supervisor before they are returned; frames
// belonging to a session that is no longer current are dropped.
func (s *Supervisor) Poll() (Frame, bool) {
	for {
		frame, ok := s.inbound.TryPop()
		if !ok {
			return Frame{}, false
		}
		switch frame.Kind {
		case FrameOpen:
			s.current = frame.session
			s.state = StateHandshaking
			s.logger.Info().Uint64("session", frame.Session).Str("endpoint", s.opts.Endpoint).Msg("connected")
			frame.session = nil
			return frame, true
		case FrameClose:
			if s.current == nil || frame.Session != s.current.ID() {
				s.logger.Debug().Uint64("session", frame.Session).Msg("ignoring close from stale session")
				continue
			}
			s.current = nil
			s.state = StateDisconnected
			s.connect()
			return frame, true
		default:
			if s.current == nil || frame.Session != s.current.ID() {
				s.logger.Debug().Uint64("session", frame.Session).Msg("dropping frame from stale session")
				continue
			}
			return frame, true
		}
	}
}

func (s *Supervisor) connect() {
	if s.ctx == nil || s.ctx.Err() != nil {
		return
	}
	s.state = StateConnecting
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dialLoop(s.ctx)
	}()
}

// dialLoop retries until a connection is made or ctx is cancelled.
func (s *Supervisor) dialLoop(ctx context.Context) {
	for failures := 0; ; failures++ {
		conn, err := s.opts.Dial(ctx, s.opts.Endpoint)
		if err == nil {
			s.generation++
			sess := newSession(s.generation, conn, s.inbound, s.opts.ReadTimeout, s.logger)
			if ctx.Err() != nil {
				_ = conn.Close()
				return
			}
			sess.start()
			s.inbound.Push(Frame{Kind: FrameOpen, Session: sess.ID(), session: sess})
			return
		}
		if ctx.Err() != nil {
			return
		}
		wait := calculateBackoff(failures, s.opts.MinBackoff, s.opts.MaxBackoff)
		s.logger.Info().Err(err).Int("attempt", failures+1).Dur("retry_in", wait).Msg("connect failed")
		if sleepContext(ctx, wait) != nil {
			return
		}
	}
}
