package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pulseview/pulseview/internal/models"
)

// Reconnect policy defaults.
const (
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectFloor       = time.Second
	DefaultReconnectCeiling     = 30 * time.Second
)

// SocketState is the connection state of a StreamSocket.
type SocketState int

const (
	SocketDisconnected SocketState = iota
	SocketConnecting
	SocketConnected
)

func (s SocketState) String() string {
	switch s {
	case SocketConnecting:
		return "connecting"
	case SocketConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// wsConn is the subset of *websocket.Conn the socket needs; tests
// substitute their own.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

// DialFunc opens one websocket connection to url.
type DialFunc func(ctx context.Context, url string) (wsConn, error)

func gorillaDial(ctx context.Context, url string) (wsConn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// StreamSocketURL derives the websocket stream endpoint from an HTTP
// base URL.
func StreamSocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://") + "/ws/stream"
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://") + "/ws/stream"
	default:
		return baseURL + "/ws/stream"
	}
}

// newReconnectBackoff builds the deterministic delay schedule used
// between reconnect attempts: floor, doubling each attempt, capped at
// ceiling, no jitter.
func newReconnectBackoff(floor, ceiling time.Duration) *backoff.ExponentialBackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(floor),
		backoff.WithMultiplier(2.0),
		backoff.WithMaxInterval(ceiling),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	)
}

// SocketConfig configures a StreamSocket.
type SocketConfig struct {
	// URL is the stream endpoint, e.g. "ws://127.0.0.1:8000/ws/stream".
	URL string

	// OnData receives the payload of each stream_data frame.
	OnData func(*models.StreamData)

	// OnError, if set, receives read/transport errors. Errors are
	// delivered via callback, never returned, and do not by
	// themselves tear the socket down.
	OnError func(error)

	// OnClose, if set, fires every time a connection (or connection
	// attempt) ends, before any reconnect is scheduled.
	OnClose func(error)

	// Dial defaults to the gorilla dialer; injectable for tests.
	Dial DialFunc

	Clock  clockwork.Clock
	Logger *slog.Logger

	// MaxReconnectAttempts bounds automatic reconnects; after this
	// many consecutive failures the socket gives up silently.
	MaxReconnectAttempts int
	ReconnectFloor       time.Duration
	ReconnectCeiling     time.Duration
}

func (cfg *SocketConfig) Validate() error {
	if cfg.URL == "" {
		return errors.New("socket URL is required")
	}
	if cfg.OnData == nil {
		return errors.New("data callback is required")
	}
	if cfg.MaxReconnectAttempts < 0 {
		return errors.New("max reconnect attempts must not be negative")
	}
	return nil
}

// StreamSocket maintains a websocket connection to the backend stream
// endpoint, reconnecting with capped exponential backoff when the
// connection drops. It is the lower-latency alternative to
// StreamPoller. The socket handle is owned exclusively by this
// instance; reconnects are only ever scheduled from the read-loop exit
// path, so at most one reconnect timer is pending at any time.
type StreamSocket struct {
	cfg SocketConfig

	mu       sync.Mutex
	state    SocketState
	conn     wsConn
	attempts int
	closed   bool
	started  bool
	cancel   context.CancelFunc

	bo   *backoff.ExponentialBackOff
	done chan struct{}
}

// NewStreamSocket validates cfg and returns an unconnected socket.
func NewStreamSocket(cfg SocketConfig) (*StreamSocket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Dial == nil {
		cfg.Dial = gorillaDial
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.ReconnectFloor == 0 {
		cfg.ReconnectFloor = DefaultReconnectFloor
	}
	if cfg.ReconnectCeiling == 0 {
		cfg.ReconnectCeiling = DefaultReconnectCeiling
	}
	return &StreamSocket{
		cfg:  cfg,
		bo:   newReconnectBackoff(cfg.ReconnectFloor, cfg.ReconnectCeiling),
		done: make(chan struct{}),
	}, nil
}

// Connect starts the connection loop. It returns immediately; delivery
// happens through the configured callbacks. Calling Connect more than
// once is a no-op.
func (s *StreamSocket) Connect(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go s.run(ctx)
}

// Disconnect is the only clean terminal transition: it saturates the
// attempt counter so that no reconnect fires (even one racing the
// close event) and closes the socket.
func (s *StreamSocket) Disconnect() {
	s.mu.Lock()
	s.closed = true
	s.attempts = s.cfg.MaxReconnectAttempts
	conn := s.conn
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// State reports the current connection state.
func (s *StreamSocket) State() SocketState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the connection loop has fully exited, whether by
// Disconnect or by the reconnect policy giving up.
func (s *StreamSocket) Done() <-chan struct{} { return s.done }

func (s *StreamSocket) run(ctx context.Context) {
	defer close(s.done)
	defer s.setState(SocketDisconnected)

	for {
		s.setState(SocketConnecting)
		conn, err := s.cfg.Dial(ctx, s.cfg.URL)
		if err != nil {
			s.cfg.Logger.Debug("stream socket dial failed", "url", s.cfg.URL, "error", err)
			s.setState(SocketDisconnected)
			if s.cfg.OnClose != nil {
				s.cfg.OnClose(err)
			}
			if !s.waitReconnect(ctx) {
				return
			}
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conn = conn
		s.state = SocketConnected
		// A successful open resets the reconnect budget and the delay
		// schedule to its floor.
		s.attempts = 0
		s.bo.Reset()
		s.mu.Unlock()

		err = s.readLoop(conn)

		s.mu.Lock()
		s.conn = nil
		s.state = SocketDisconnected
		s.mu.Unlock()
		_ = conn.Close()

		if s.cfg.OnClose != nil {
			s.cfg.OnClose(err)
		}
		if !s.waitReconnect(ctx) {
			return
		}
	}
}

// readLoop consumes frames until the connection fails. Malformed JSON
// is logged and dropped with the connection left open; only frames
// tagged stream_data reach the data callback.
func (s *StreamSocket) readLoop(conn wsConn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if s.cfg.OnError != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.cfg.OnError(err)
			}
			return err
		}

		var frame models.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.cfg.Logger.Warn("dropping malformed stream frame", "error", err)
			continue
		}
		if frame.Type == models.FrameStreamData && frame.Data != nil {
			s.cfg.OnData(frame.Data)
		}
	}
}

// waitReconnect consumes one reconnect attempt and sleeps the current
// backoff delay. It reports false when the socket should stay down:
// attempt budget exhausted (give up silently), explicit Disconnect, or
// context cancellation.
func (s *StreamSocket) waitReconnect(ctx context.Context) bool {
	s.mu.Lock()
	if s.closed || s.attempts >= s.cfg.MaxReconnectAttempts {
		s.mu.Unlock()
		return false
	}
	s.attempts++
	delay := s.bo.NextBackOff()
	s.mu.Unlock()

	s.cfg.Logger.Debug("scheduling stream reconnect", "delay", delay)

	select {
	case <-ctx.Done():
		return false
	case <-s.cfg.Clock.After(delay):
	}

	// Disconnect may have landed while we were waiting.
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *StreamSocket) setState(st SocketState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
