package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

const sessionColumns = `id, exam_id, student_id, status, entry_time, end_time,
	exit_time, device_id, network_addr, client_info`

// SessionRepository handles exam session data access.
//
// The uniqueness invariant (at most one session, and so at most one ACTIVE
// session, per (exam, student)) lives in the schema: a unique constraint on
// the pair plus a partial unique index on the ACTIVE status. All status
// transitions are single guarded UPDATEs so that two handler instances racing
// on the same session cannot both win.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(
		&s.ID, &s.ExamID, &s.StudentID, &s.Status, &s.EntryTime, &s.EndTime,
		&s.ExitTime, &s.DeviceID, &s.NetworkAddr, &s.ClientInfo,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// GetByExamAndStudent retrieves the session for an (exam, student) pair.
func (r *SessionRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID)
	return scanSession(row)
}

// FindActiveByDevice finds the student's ACTIVE session bound to the given
// device. Used by the exit endpoint, which pauses the caller's own session.
func (r *SessionRepository) FindActiveByDevice(ctx context.Context, studentID int, deviceID string) (*model.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE student_id = $1 AND device_id = $2 AND status = 'ACTIVE'`,
		studentID, deviceID)
	return scanSession(row)
}

// CreateActive inserts a new ACTIVE session. On a concurrent duplicate the
// insert is a no-op and pgx.ErrNoRows is returned; the caller refetches and
// resumes the state machine against the winner's row.
func (r *SessionRepository) CreateActive(ctx context.Context, s *model.Session) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO sessions (exam_id, student_id, status, entry_time, end_time,
			device_id, network_addr, client_info)
		VALUES ($1, $2, 'ACTIVE', $3, $4, $5, $6, $7)
		ON CONFLICT (exam_id, student_id) DO NOTHING
		RETURNING id`,
		s.ExamID, s.StudentID, s.EntryTime, s.EndTime,
		s.DeviceID, s.NetworkAddr, s.ClientInfo,
	).Scan(&s.ID)
}

// Reactivate transitions INACTIVE → ACTIVE and rebinds the device. Returns
// false when the row was no longer INACTIVE (lost a race with another
// transition); the caller should refetch and re-evaluate.
func (r *SessionRepository) Reactivate(ctx context.Context, id uuid.UUID, deviceID, networkAddr, clientInfo string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'ACTIVE', device_id = $2, network_addr = $3, client_info = $4
		WHERE id = $1 AND status = 'INACTIVE'`,
		id, deviceID, networkAddr, clientInfo)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Touch refreshes the network/client fingerprints on a same-device re-entry
// without changing status. Guarded on the device so a concurrent device
// switch cannot be overwritten.
func (r *SessionRepository) Touch(ctx context.Context, id uuid.UUID, deviceID, networkAddr, clientInfo string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET network_addr = $3, client_info = $4
		WHERE id = $1 AND status = 'ACTIVE' AND device_id = $2`,
		id, deviceID, networkAddr, clientInfo)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Pause transitions ACTIVE → INACTIVE and stamps exit_time. Returns false if
// the session was not ACTIVE.
func (r *SessionRepository) Pause(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET status = 'INACTIVE', exit_time = $2
		WHERE id = $1 AND status = 'ACTIVE'`,
		id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete transitions to COMPLETED. exit_time is only stamped if not already
// set, so retried finishes keep a single exit_time. The guard skips rows that
// are already COMPLETED, letting the service treat a zero row count as the
// idempotent case.
func (r *SessionRepository) Complete(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'COMPLETED', exit_time = COALESCE(exit_time, $2)
		WHERE id = $1 AND status IN ('ACTIVE', 'INACTIVE')`,
		id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkExpired formalizes lazy expiry for one session. A no-op when the row is
// already terminal.
func (r *SessionRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE sessions SET status = 'EXPIRED'
		WHERE id = $1 AND status IN ('ACTIVE', 'INACTIVE') AND end_time <= NOW()`,
		id)
	return err
}

// MarkOverdueExpired bulk-expires all overdue non-terminal sessions. Used by
// the background sweeper; readers never depend on it.
func (r *SessionRepository) MarkOverdueExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET status = 'EXPIRED'
		WHERE status IN ('ACTIVE', 'INACTIVE') AND end_time <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListByStudent retrieves all sessions for a student, newest first.
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE student_id = $1 ORDER BY entry_time DESC`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
