package ports

import (
	"context"

	"github.com/memberly/edge-gateway/internal/core/domain"
)

// AuditSink records auth-relevant events at the edge. Record must be cheap
// and must never fail the request it observes; implementations buffer and
// write asynchronously.
type AuditSink interface {
	Record(event domain.AuditEvent)
	Close(ctx context.Context) error
}
