package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, limit int, window time.Duration, maxEntries int) (*Limiter, *MemoryStore, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(maxEntries)
	store.nowFunc = c.Now
	l, err := New(store, limit, window)
	require.NoError(t, err)
	return l, store, c
}

func TestEleventhRequestIsRejected(t *testing.T) {
	l, _, c := newTestLimiter(t, 10, time.Minute, 100)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		d, err := l.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 10-i, d.Remaining)
		c.Advance(time.Second)
	}
	d, err := l.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestWindowResetsAfterExpiry(t *testing.T) {
	l, _, c := newTestLimiter(t, 2, time.Minute, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.Allow(ctx, "k")
		require.NoError(t, err)
	}
	c.Advance(time.Minute)
	d, _ := l.Allow(ctx, "k")
	assert.False(t, d.Allowed, "window end is inclusive")

	c.Advance(time.Millisecond)
	d, _ = l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestKeysAreIndependent(t *testing.T) {
	l, _, _ := newTestLimiter(t, 1, time.Minute, 100)
	ctx := context.Background()

	a, _ := l.Allow(ctx, "a")
	b, _ := l.Allow(ctx, "b")
	a2, _ := l.Allow(ctx, "a")
	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)
	assert.False(t, a2.Allowed)
}

func TestConcurrentSameKeyAdmitsExactlyLimit(t *testing.T) {
	l, _, _ := newTestLimiter(t, 10, time.Minute, 100)
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d, err := l.Allow(ctx, "same"); err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(10), allowed.Load())
}

func TestMemoryStoreStaysBounded(t *testing.T) {
	l, store, c := newTestLimiter(t, 5, time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = l.Allow(ctx, fmt.Sprintf("ip-%d", i))
		c.Advance(time.Second)
	}
	assert.Equal(t, 3, store.Len())

	_, _ = l.Allow(ctx, "ip-3")
	assert.Equal(t, 3, store.Len(), "oldest window is evicted")

	c.Advance(2 * time.Minute)
	_, _ = l.Allow(ctx, "ip-4")
	assert.Equal(t, 1, store.Len(), "expired windows are swept")
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("redis: connection refused")
}

func TestStoreFailureIsReturned(t *testing.T) {
	l, err := New(failingStore{}, 10, time.Minute)
	require.NoError(t, err)
	_, err = l.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestNewValidates(t *testing.T) {
	_, err := New(NewMemoryStore(0), 0, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	_, err = New(NewMemoryStore(0), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
