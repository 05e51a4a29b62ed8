// Package ratelimit implements a two-window request limiter with an optional
// fast counter store and a durable fallback.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentgate/agentgate/internal/store"
)

// DefaultAction is the counter namespace used when callers don't name one.
const DefaultAction = "api_request"

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour

	// ReasonPerMinute and ReasonPerHour identify which window tripped.
	ReasonPerMinute = "rate_limit_per_minute"
	ReasonPerHour   = "rate_limit_per_hour"
)

// FastStore is a low-latency counter backend that can be probed for
// connectivity.
type FastStore interface {
	store.CounterRepository
	Ping(ctx context.Context) error
}

// Result is the outcome of a limit check.
type Result struct {
	Limited    bool   `json:"limited"`
	Reason     string `json:"reason,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Current    int64  `json:"current,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// Remaining reports the unspent quota in both windows.
type Remaining struct {
	PerMinute      int64 `json:"remaining_per_minute"`
	PerHour        int64 `json:"remaining_per_hour"`
	LimitPerMinute int   `json:"limit_per_minute"`
	LimitPerHour   int   `json:"limit_per_hour"`
	UsingFastStore bool  `json:"using_fast_store"`
}

// Limiter decides whether an identifier has exceeded its request quota.
// Counters live in fixed, non-sliding buckets (floor(now/window)); a burst
// straddling a bucket boundary can admit up to twice the limit within the
// seam, which is the accepted trade-off of this scheme.
type Limiter struct {
	fast      FastStore // nil after a failed startup probe
	durable   store.CounterRepository
	perMinute int
	perHour   int
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the Limiter.
type Option func(*Limiter)

// WithLogger sets the logger for the limiter.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates a Limiter. The fast store may be nil; when present it is
// probed once and dropped for the limiter's lifetime if unreachable. Runtime
// failures of a reachable fast store degrade to the durable store per call.
func NewLimiter(fast FastStore, durable store.CounterRepository, perMinute, perHour int, opts ...Option) *Limiter {
	l := &Limiter{
		fast:      fast,
		durable:   durable,
		perMinute: perMinute,
		perHour:   perHour,
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.fast != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.fast.Ping(ctx); err != nil {
			l.logger.Warn("fast counter store unreachable, using durable fallback", "error", err)
			l.fast = nil
		}
	}

	return l
}

// UsingFastStore reports whether the startup probe succeeded.
func (l *Limiter) UsingFastStore() bool {
	return l.fast != nil
}

// IsRateLimited checks both windows for the identifier. The minute window is
// checked and reported before the hour window.
func (l *Limiter) IsRateLimited(ctx context.Context, identifier, action string) (*Result, error) {
	if action == "" {
		action = DefaultAction
	}

	minuteCount, err := l.getCount(ctx, l.key(action, identifier, minuteWindow))
	if err != nil {
		return nil, err
	}
	if minuteCount >= int64(l.perMinute) {
		return &Result{
			Limited:    true,
			Reason:     ReasonPerMinute,
			Limit:      l.perMinute,
			Current:    minuteCount,
			RetryAfter: int(minuteWindow.Seconds()),
		}, nil
	}

	hourCount, err := l.getCount(ctx, l.key(action, identifier, hourWindow))
	if err != nil {
		return nil, err
	}
	if hourCount >= int64(l.perHour) {
		return &Result{
			Limited:    true,
			Reason:     ReasonPerHour,
			Limit:      l.perHour,
			Current:    hourCount,
			RetryAfter: int(hourWindow.Seconds()),
		}, nil
	}

	return &Result{Limited: false}, nil
}

// RecordRequest increments both window counters. The first increment of a
// bucket arms its expiry so stale buckets self-clean.
func (l *Limiter) RecordRequest(ctx context.Context, identifier, action string) error {
	if action == "" {
		action = DefaultAction
	}

	if err := l.increment(ctx, l.key(action, identifier, minuteWindow), minuteWindow); err != nil {
		return err
	}
	return l.increment(ctx, l.key(action, identifier, hourWindow), hourWindow)
}

// GetRemaining reports the unspent quota for the identifier.
func (l *Limiter) GetRemaining(ctx context.Context, identifier, action string) (*Remaining, error) {
	if action == "" {
		action = DefaultAction
	}

	minuteCount, err := l.getCount(ctx, l.key(action, identifier, minuteWindow))
	if err != nil {
		return nil, err
	}
	hourCount, err := l.getCount(ctx, l.key(action, identifier, hourWindow))
	if err != nil {
		return nil, err
	}

	return &Remaining{
		PerMinute:      max64(0, int64(l.perMinute)-minuteCount),
		PerHour:        max64(0, int64(l.perHour)-hourCount),
		LimitPerMinute: l.perMinute,
		LimitPerHour:   l.perHour,
		UsingFastStore: l.fast != nil,
	}, nil
}

// Reset clears both window counters for the identifier. Operator action for
// unblocking a wrongly-throttled caller.
func (l *Limiter) Reset(ctx context.Context, identifier, action string) error {
	if action == "" {
		action = DefaultAction
	}

	if err := l.deleteCounter(ctx, l.key(action, identifier, minuteWindow)); err != nil {
		return err
	}
	return l.deleteCounter(ctx, l.key(action, identifier, hourWindow))
}

func (l *Limiter) key(action, identifier string, window time.Duration) string {
	bucket := l.now().Unix() / int64(window.Seconds())
	name := "minute"
	if window == hourWindow {
		name = "hour"
	}
	return fmt.Sprintf("agentgate_rate_%s_%s_%s_%d", action, identifier, name, bucket)
}

func (l *Limiter) getCount(ctx context.Context, key string) (int64, error) {
	if l.fast != nil {
		count, err := l.fast.GetCount(ctx, key)
		if err == nil {
			return count, nil
		}
		l.logger.Warn("fast store read failed, falling back", "error", err)
	}
	return l.durable.GetCount(ctx, key)
}

func (l *Limiter) increment(ctx context.Context, key string, ttl time.Duration) error {
	if l.fast != nil {
		_, err := l.fast.Increment(ctx, key, ttl)
		if err == nil {
			return nil
		}
		l.logger.Warn("fast store increment failed, falling back", "error", err)
	}
	_, err := l.durable.Increment(ctx, key, ttl)
	return err
}

func (l *Limiter) deleteCounter(ctx context.Context, key string) error {
	if l.fast != nil {
		if err := l.fast.DeleteCounter(ctx, key); err != nil {
			l.logger.Warn("fast store delete failed, falling back", "error", err)
		}
	}
	return l.durable.DeleteCounter(ctx, key)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
