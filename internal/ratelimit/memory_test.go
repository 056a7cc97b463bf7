package ratelimit

import (
	"context"
	"testing"
	"time"
)

// newTestMemory builds a limiter with a controllable clock and no sweeper.
func newTestMemory(window time.Duration, now *time.Time) *Memory {
	return &Memory{
		window:  window,
		now:     func() time.Time { return *now },
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
}

func TestMemory_FixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestMemory(time.Minute, &now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := m.Allow(ctx, "1.2.3.4", 3)
		if err != nil {
			t.Fatalf("Allow returned error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, retry, err := m.Allow(ctx, "1.2.3.4", 3)
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if allowed {
		t.Fatalf("4th request should be denied")
	}
	if retry <= 0 || retry > 61 {
		t.Fatalf("unexpected retry-after: %d", retry)
	}

	// Another identity is unaffected.
	if allowed, _, _ := m.Allow(ctx, "5.6.7.8", 3); !allowed {
		t.Fatalf("different key should be allowed")
	}

	// After the window elapses, the counter resets.
	now = now.Add(61 * time.Second)
	if allowed, _, _ := m.Allow(ctx, "1.2.3.4", 3); !allowed {
		t.Fatalf("request after window reset should be allowed")
	}
}

func TestMemory_SweepEvictsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestMemory(time.Minute, &now)

	_, _, _ = m.Allow(context.Background(), "1.2.3.4", 3)
	_, _, _ = m.Allow(context.Background(), "5.6.7.8", 3)

	now = now.Add(2 * time.Minute)
	m.evictExpired(now)

	m.mu.Lock()
	n := len(m.entries)
	m.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected all entries evicted, %d remain", n)
	}
}
