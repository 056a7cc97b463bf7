package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/memberly/edge-gateway/internal/core/domain"
)

const auditCollection = "auth_events"

// AuditRepository persists auth events for offline review. It is the write
// side of the audit trail; nothing on the request path reads it back.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

// Insert writes a single event.
func (r *AuditRepository) Insert(ctx context.Context, event domain.AuditEvent) error {
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
