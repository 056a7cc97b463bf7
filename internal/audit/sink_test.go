package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/core/domain"
)

type memWriter struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (w *memWriter) Insert(_ context.Context, event domain.AuditEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, event)
	return nil
}

func TestSink_RecordsAndFlushesOnClose(t *testing.T) {
	writer := &memWriter{}
	sink := NewSink(writer, zerolog.Nop())

	sink.Record(domain.AuditEvent{Kind: "login", Email: "a@example.com", IP: "1.2.3.4", Success: true})
	sink.Record(domain.AuditEvent{Kind: "rate_limited", IP: "1.2.3.4"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.events) != 2 {
		t.Fatalf("expected 2 events written, got %d", len(writer.events))
	}
	if writer.events[0].Kind != "login" || !writer.events[0].Success {
		t.Fatalf("unexpected first event: %+v", writer.events[0])
	}
	if writer.events[0].CreatedAt == 0 {
		t.Fatalf("timestamp not stamped")
	}
}

func TestNoop_IsInert(t *testing.T) {
	var sink Noop
	sink.Record(domain.AuditEvent{Kind: "login"})
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Noop Close returned error: %v", err)
	}
}
