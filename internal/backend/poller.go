package backend

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pulseview/pulseview/internal/models"
)

// DefaultPollInterval is the pause between a fetch completing and the
// next one starting.
const DefaultPollInterval = time.Second

// PollerConfig configures a StreamPoller.
type PollerConfig struct {
	// Fetch retrieves one snapshot. Usually Backend.FetchStream.
	Fetch func(ctx context.Context) (*models.StreamData, error)

	// OnData receives each successfully fetched snapshot.
	OnData func(*models.StreamData)

	// OnError, if set, receives fetch failures. A failure never stops
	// the poller; it retries on the next tick.
	OnError func(error)

	// Interval is the delay after each fetch completes, not a fixed
	// rate. Defaults to DefaultPollInterval.
	Interval time.Duration

	Clock  clockwork.Clock
	Logger *slog.Logger
}

func (cfg *PollerConfig) Validate() error {
	if cfg.Fetch == nil {
		return errors.New("fetch func is required")
	}
	if cfg.OnData == nil {
		return errors.New("data callback is required")
	}
	if cfg.Interval < 0 {
		return errors.New("interval must not be negative")
	}
	return nil
}

// StreamPoller repeatedly fetches the latest snapshot on a fixed
// cadence. The next fetch is scheduled only after the previous one
// completes, so no two fetches are ever in flight at once and
// callbacks fire strictly in issuance order. Intended for runtimes
// where a persistent socket is unreliable; StreamSocket is the
// lower-latency alternative.
type StreamPoller struct {
	cfg PollerConfig

	cancel   context.CancelFunc
	stopped  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
}

// StartPoller validates cfg, performs the first fetch immediately, and
// returns a running poller. Stop it with Stop.
func StartPoller(ctx context.Context, cfg PollerConfig) (*StreamPoller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &StreamPoller{
		cfg:    cfg,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.loop(ctx)
	return p, nil
}

// Stop halts polling. No further fetch is issued, and the result of a
// fetch already in flight is discarded rather than applied. The
// in-flight request itself is aborted through context cancellation.
// Idempotent.
func (p *StreamPoller) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		p.cancel()
	})
}

// Done is closed once the polling loop has fully exited.
func (p *StreamPoller) Done() <-chan struct{} { return p.done }

func (p *StreamPoller) loop(ctx context.Context) {
	defer close(p.done)

	for {
		if p.stopped.Load() || ctx.Err() != nil {
			return
		}

		data, err := p.cfg.Fetch(ctx)

		// Re-check after the fetch returns: a result that arrives
		// after Stop is discarded, not applied.
		if p.stopped.Load() || ctx.Err() != nil {
			return
		}

		if err != nil {
			p.cfg.Logger.Debug("stream fetch failed", "error", err)
			if p.cfg.OnError != nil {
				p.cfg.OnError(err)
			}
		} else {
			p.cfg.OnData(data)
		}

		select {
		case <-ctx.Done():
			return
		case <-p.cfg.Clock.After(p.cfg.Interval):
		}
	}
}
