// Package ratelimit provides the in-process fixed-window rate limiter.
//
// Fixed-window counting is deliberate: a caller can burst up to twice the
// limit across a window boundary. That is an accepted approximation for
// anti-abuse on the auth endpoints, not a hard guarantee.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local fixed-window limiter. Expired entries are swept
// in the background so the map does not grow with every IP ever seen.
// Safe for concurrent use.
type Memory struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	stop    chan struct{}
	stopped sync.Once
}

// NewMemory creates a limiter with the given window and starts its sweeper.
// Call Stop when the limiter is no longer needed.
func NewMemory(window time.Duration) *Memory {
	if window <= 0 {
		window = time.Minute
	}
	m := &Memory{
		window:  window,
		now:     time.Now,
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Allow implements ports.RateLimiter.
func (m *Memory) Allow(_ context.Context, key string, limit int) (bool, int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || now.After(e.resetAt) {
		m.entries[key] = &entry{count: 1, resetAt: now.Add(m.window)}
		return true, 0, nil
	}

	if e.count >= limit {
		retry := int(e.resetAt.Sub(now).Seconds()) + 1
		return false, retry, nil
	}

	e.count++
	return true, 0, nil
}

// Stop terminates the background sweeper. Idempotent.
func (m *Memory) Stop() {
	m.stopped.Do(func() { close(m.stop) })
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictExpired(m.now())
		}
	}
}

func (m *Memory) evictExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if now.After(e.resetAt) {
			delete(m.entries, key)
		}
	}
}
