// Package circuitbreaker implements a Closed/Open/HalfOpen breaker
// guarding best-effort calls to external sinks (UploadFolder,
// RegisterBatch). A sink failure must never invalidate already-written
// local epoch artifacts, so callers wrap only the sink call itself in
// Execute.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the breaker fast-fails a call instead of
// invoking it.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config holds the breaker tunables.
type Config struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// Breaker wraps an external probe/operation with failure tracking.
type Breaker struct {
	name   string
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	recentFails int
	openedAt    time.Time
}

// New returns a Breaker in the Closed state.
func New(name string, cfg Config, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	b := &Breaker{name: name, cfg: cfg, logger: logger, state: Closed}
	b.logger.Info("breaker created", slog.String("name", name), slog.Int("maxFailures", cfg.MaxFailures))
	return b
}

// Execute runs op, tracking failures and fast-failing with ErrOpen
// while the breaker is Open and its reset timeout has not elapsed.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.state
	openedAt := b.openedAt
	b.mu.Unlock()

	if state == Open {
		if time.Since(openedAt) < b.cfg.ResetTimeout {
			b.logger.Warn("breaker fast fail", slog.String("name", b.name))
			return ErrOpen
		}
		return b.tryHalfOpen(ctx, op)
	}

	err := op(ctx)
	if err == nil {
		b.onSuccess()
		return nil
	}
	b.onFailure(err)
	return err
}

func (b *Breaker) tryHalfOpen(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	b.state = HalfOpen
	b.mu.Unlock()
	b.logger.Info("breaker probe start", slog.String("name", b.name))

	if err := op(ctx); err != nil {
		b.mu.Lock()
		b.state = Open
		b.openedAt = time.Now()
		b.recentFails++
		b.mu.Unlock()
		b.logger.Warn("breaker probe failed", slog.String("name", b.name), slog.String("error", err.Error()))
		return err
	}

	b.mu.Lock()
	b.state = Closed
	b.recentFails = 0
	b.mu.Unlock()
	b.logger.Info("breaker closed after probe", slog.String("name", b.name))
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.recentFails = 0
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recentFails++
	b.logger.Warn("operation failure", slog.String("name", b.name), slog.Int("failures", b.recentFails), slog.String("error", err.Error()))
	if b.recentFails >= b.cfg.MaxFailures {
		b.state = Open
		b.openedAt = time.Now()
		b.logger.Error("breaker opened", slog.String("name", b.name))
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
