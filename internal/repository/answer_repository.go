package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// AnswerRepository is the answer ledger: last-write-wins upserts keyed by
// (session, slot). Rows are independently lockable per slot, so parallel
// submissions from one device do not serialize through the session row.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// UpsertBatch applies a batch of answers in one transaction: either every
// slot persists or none does. A retried batch is therefore safe, and a
// half-saved answer sheet is impossible.
func (r *AnswerRepository) UpsertBatch(ctx context.Context, sessionID uuid.UUID, answers []model.AnswerInput) error {
	if len(answers) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, a := range answers {
		batch.Queue(`
			INSERT INTO session_answers (session_id, slot, value)
			VALUES ($1, $2, $3)
			ON CONFLICT (session_id, slot) DO UPDATE
			SET value = EXCLUDED.value, updated_at = NOW()`,
			sessionID, a.Slot, a.Value)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListBySession returns the latest value per slot for one session.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, slot, value, updated_at
		FROM session_answers WHERE session_id = $1 ORDER BY slot`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AnswerRecord
	for rows.Next() {
		var rec model.AnswerRecord
		if err := rows.Scan(&rec.SessionID, &rec.Slot, &rec.Value, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MapByExam returns every session's answers for an exam in one query,
// keyed by session ID. Used by the report path to avoid N+1 fetches.
func (r *AnswerRepository) MapByExam(ctx context.Context, examID uuid.UUID) (map[uuid.UUID][]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.session_id, a.slot, a.value, a.updated_at
		FROM session_answers a
		JOIN sessions s ON s.id = a.session_id
		WHERE s.exam_id = $1`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]model.AnswerRecord)
	for rows.Next() {
		var rec model.AnswerRecord
		if err := rows.Scan(&rec.SessionID, &rec.Slot, &rec.Value, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out[rec.SessionID] = append(out[rec.SessionID], rec)
	}
	return out, rows.Err()
}
