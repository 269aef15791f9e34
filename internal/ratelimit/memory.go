package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps counters in a process-local map. The map is bounded:
// when it is full, expired windows are swept and, failing that, the window
// closest to expiry is evicted.
// It is safe for concurrent use.
type MemoryStore struct {
	mu         sync.Mutex
	windows    map[string]*window
	maxEntries int
	nowFunc    func() time.Time // for testing
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryStore{
		windows:    make(map[string]*window),
		maxEntries: maxEntries,
		nowFunc:    time.Now,
	}
}

func (m *MemoryStore) Incr(_ context.Context, key string, length time.Duration) (int, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) {
		if !ok && len(m.windows) >= m.maxEntries {
			m.makeRoom(now)
		}
		w = &window{resetAt: now.Add(length)}
		m.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Len returns the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

func (m *MemoryStore) makeRoom(now time.Time) {
	for k, w := range m.windows {
		if now.After(w.resetAt) {
			delete(m.windows, k)
		}
	}
	if len(m.windows) < m.maxEntries {
		return
	}
	var oldest string
	var oldestReset time.Time
	for k, w := range m.windows {
		if oldest == "" || w.resetAt.Before(oldestReset) {
			oldest, oldestReset = k, w.resetAt
		}
	}
	delete(m.windows, oldest)
}
