// Package audit buffers auth events and writes them out of band, so the
// request path never waits on the audit store.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/core/domain"
)

const (
	channelBuffer = 256
	writeTimeout  = 3 * time.Second
)

// Writer persists a single audit event. Implemented by the Mongo repository.
type Writer interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
}

// Sink accepts events on a buffered channel and drains them on a single
// worker goroutine. When the buffer is full the event is dropped and counted
// in the log; auditing is best-effort and must never apply backpressure.
type Sink struct {
	events chan domain.AuditEvent
	done   chan struct{}
	writer Writer
	log    zerolog.Logger
}

// NewSink starts the drain worker. Call Close to flush and stop it.
func NewSink(writer Writer, log zerolog.Logger) *Sink {
	s := &Sink{
		events: make(chan domain.AuditEvent, channelBuffer),
		done:   make(chan struct{}),
		writer: writer,
		log:    log,
	}
	go s.drain()
	return s
}

// Record implements ports.AuditSink. Non-blocking.
func (s *Sink) Record(event domain.AuditEvent) {
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().UTC().Unix()
	}
	select {
	case s.events <- event:
	default:
		s.log.Warn().Str("kind", event.Kind).Msg("audit buffer full, event dropped")
	}
}

// Close stops accepting events and waits for the worker to finish the
// buffered backlog, or for ctx to expire.
func (s *Sink) Close(ctx context.Context) error {
	close(s.events)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) drain() {
	defer close(s.done)
	for event := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := s.writer.Insert(ctx, event); err != nil {
			s.log.Error().Err(err).Str("kind", event.Kind).Msg("audit write failed")
		}
		cancel()
	}
}

// Noop discards every event. Used when no audit store is configured.
type Noop struct{}

func (Noop) Record(domain.AuditEvent) {}

func (Noop) Close(context.Context) error { return nil }
