package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/five82/krui/internal/console"
	"github.com/five82/krui/internal/moonraker"
	"github.com/five82/krui/internal/state"
	"github.com/five82/krui/internal/transport"
)

// ErrNotLive is returned by Submit while no session has completed its
// handshake.
var ErrNotLive = errors.New("link not live")

const (
	defaultHistoryLimit     = 50
	defaultMaxFramesPerTick = 256
	defaultClientName       = "krui"
	clientType              = "desktop"
)

// Transport is the connection the link drives. *transport.Supervisor
// implements it.
type Transport interface {
	Start(ctx context.Context)
	Stop()
	Poll() (transport.Frame, bool)
	Send(data []byte) error
	State() transport.State
	MarkLive()
	CloseSession()
}

// Options configures a Link.
type Options struct {
	ClientName       string
	Version          string
	URL              string
	HistoryLimit     int
	ConsoleLimit     int
	MaxFramesPerTick int
	Logger           zerolog.Logger
	// NewID overrides request id generation; tests use it for stable ids.
	NewID func() string
}

// Link is the consumer side of the Moonraker connection. It owns the
// printer snapshot, the job history, the console and the pending-call
// table. All of its methods must be called from one goroutine.
type Link struct {
	tr     Transport
	opts   Options
	logger zerolog.Logger

	calls   *moonraker.Correlator
	printer state.Printer
	history state.History
	console *console.Buffer
	server  moonraker.ServerInfo

	// metadataFor is the file whose metadata was last requested, so a
	// status update stream does not re-request it every time.
	metadataFor string
}

// New returns a link that drives tr.
func New(tr Transport, opts Options) *Link {
	if opts.ClientName == "" {
		opts.ClientName = defaultClientName
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.MaxFramesPerTick <= 0 {
		opts.MaxFramesPerTick = defaultMaxFramesPerTick
	}
	calls := moonraker.NewCorrelator()
	if opts.NewID != nil {
		calls = moonraker.NewCorrelatorWithIDs(opts.NewID)
	}
	return &Link{
		tr:      tr,
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "link").Logger(),
		calls:   calls,
		printer: state.NewPrinter(),
		console: console.New(opts.ConsoleLimit),
	}
}

// Start begins connecting in the background.
func (l *Link) Start(ctx context.Context) {
	l.tr.Start(ctx)
}

// Stop closes the connection and stops reconnecting.
func (l *Link) Stop() {
	l.tr.Stop()
	l.calls.Reset()
}

// Tick handles every frame that is already waiting, up to the per-tick
// limit, and returns how many it handled. It never blocks.
func (l *Link) Tick() int {
	n := 0
	for n < l.opts.MaxFramesPerTick {
		frame, ok := l.tr.Poll()
		if !ok {
			break
		}
		l.handleFrame(frame)
		n++
	}
	return n
}

// Snapshot returns a copy of the printer state.
func (l *Link) Snapshot() state.Printer {
	return l.printer.Clone()
}

// History returns known jobs, newest first.
func (l *Link) History() []state.Job {
	return l.history.Recent()
}

// Console returns the last n console lines, oldest first. A non-positive n
// returns everything.
func (l *Link) Console(n int) []console.Line {
	if n <= 0 {
		return l.console.Lines()
	}
	return l.console.Tail(n)
}

// State returns the connection lifecycle state.
func (l *Link) State() transport.State {
	return l.tr.State()
}

// ServerInfo returns the last server.info result.
func (l *Link) ServerInfo() moonraker.ServerInfo {
	return l.server
}

// Pending returns the number of calls awaiting a reply.
func (l *Link) Pending() int {
	return l.calls.Pending()
}

// Submit sends a user command. It fails with ErrNotLive unless the current
// session has finished its handshake.
func (l *Link) Submit(method string, params any) (string, error) {
	if l.tr.State() != transport.StateLive {
		return "", ErrNotLive
	}
	return l.call(method, params)
}

// call issues a request regardless of the lifecycle state. A request that
// cannot be queued is removed from the pending table again.
func (l *Link) call(method string, params any) (string, error) {
	req := l.calls.Issue(method, params)
	data, err := req.Encode()
	if err != nil {
		l.calls.Resolve(req.ID)
		return "", err
	}
	if err := l.tr.Send(data); err != nil {
		l.calls.Resolve(req.ID)
		return "", fmt.Errorf("send %s: %w", method, err)
	}
	l.logger.Debug().Str("method", method).Str("id", req.ID).Msg("call")
	return req.ID, nil
}

// mustCall issues a call the link makes on its own behalf. Failures are
// logged; the session's Close frame will reset everything anyway.
func (l *Link) mustCall(method string, params any) {
	if _, err := l.call(method, params); err != nil {
		l.logger.Warn().Err(err).Str("method", method).Msg("call not sent")
	}
}

// handshake populates a fresh session: identify, server info, the object
// list (which triggers query and subscribe), then recent history.
func (l *Link) handshake() {
	l.mustCall(moonraker.MethodIdentify, moonraker.IdentifyParams{
		ClientName: l.opts.ClientName,
		Version:    l.opts.Version,
		Type:       clientType,
		URL:        l.opts.URL,
	})
	l.mustCall(moonraker.MethodServerInfo, nil)
	l.mustCall(moonraker.MethodObjectsList, nil)
	l.mustCall(moonraker.MethodHistoryList, moonraker.HistoryListParams{
		Limit: l.opts.HistoryLimit,
		Order: "desc",
	})
}
