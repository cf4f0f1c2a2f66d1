package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// AuditRepository persists the append-only session audit log. There is no
// update or delete path.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Insert appends a single audit entry.
func (r *AuditRepository) Insert(ctx context.Context, e *model.SessionAuditEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_audit_log (session_id, action, device_id, network_addr, client_info, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.SessionID, e.Action, e.DeviceID, e.NetworkAddr, e.ClientInfo, e.RecordedAt)
	return err
}

// BulkInsert appends a batch of audit entries with COPY.
func (r *AuditRepository) BulkInsert(ctx context.Context, entries []*model.SessionAuditEntry) error {
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{
			e.SessionID, string(e.Action), e.DeviceID, e.NetworkAddr, e.ClientInfo, e.RecordedAt,
		})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"session_audit_log"},
		[]string{"session_id", "action", "device_id", "network_addr", "client_info", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// ListBySession returns a session's audit trail in recorded order.
func (r *AuditRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.SessionAuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, action, device_id, network_addr, client_info, recorded_at
		FROM session_audit_log WHERE session_id = $1 ORDER BY recorded_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.SessionAuditEntry
	for rows.Next() {
		var e model.SessionAuditEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Action, &e.DeviceID, &e.NetworkAddr, &e.ClientInfo, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DistinctDeviceCount answers "was this session accessed from more than one
// device in its lifetime" for forensic review.
func (r *AuditRepository) DistinctDeviceCount(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT device_id) FROM session_audit_log WHERE session_id = $1`,
		sessionID).Scan(&n)
	return n, err
}
