// Package ratelimit implements a fixed-window request limiter over a
// pluggable counter store.
//
// A window opens with the first request from a key and lasts for the
// configured duration; the next request after it ends opens a new one. A
// client can therefore land up to twice the limit across a window boundary.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidLimit  = errors.New("invalid limit")
	ErrInvalidWindow = errors.New("invalid window")
)

// Store counts hits per key within a window.
type Store interface {
	// Incr adds one hit to key, opening a new window of the given length when
	// none is active, and returns the hit count and when the window ends.
	// The read and increment happen atomically.
	Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int
	Remaining int
	ResetAt   time.Time
}

// Limiter admits at most limit requests per key per window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

func New(store Store, limit int, window time.Duration) (*Limiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}
	return &Limiter{store: store, limit: limit, window: window}, nil
}

// Allow records a request from key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit store: %w", err)
	}
	return Decision{
		Allowed:   count <= l.limit,
		Count:     count,
		Remaining: max(l.limit-count, 0),
		ResetAt:   resetAt,
	}, nil
}

func (l *Limiter) Limit() int {
	return l.limit
}

func (l *Limiter) Window() time.Duration {
	return l.window
}
