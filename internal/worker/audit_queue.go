package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lenterailmu/ujian-backend/internal/config"
	"github.com/lenterailmu/ujian-backend/internal/model"
)

// AuditQueue is the producer side of the audit pipeline. Session transitions
// push entries here after they commit; the AuditWorker persists them. Pushes
// in commit order keep the per-session log in transition order.
type AuditQueue struct {
	rdb *redis.Client
}

// NewAuditQueue creates a new AuditQueue.
func NewAuditQueue(rdb *redis.Client) *AuditQueue {
	return &AuditQueue{rdb: rdb}
}

// Push enqueues one audit entry. Callers treat failures as log-only.
func (q *AuditQueue) Push(ctx context.Context, e *model.SessionAuditEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.AuditEventsQueue, raw).Err()
}
