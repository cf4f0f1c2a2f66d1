package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// SessionWithStudent joins a session with its student's directory entry for
// teacher-facing reporting.
type SessionWithStudent struct {
	Session     model.Session `json:"session"`
	StudentName string        `json:"student_name"`
	Username    string        `json:"username"`
}

// ReportRepository serves read-only joins for the report surface.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// ListSessionsByExam returns every session of an exam with student identity,
// ordered by student name.
func (r *ReportRepository) ListSessionsByExam(ctx context.Context, examID uuid.UUID) ([]SessionWithStudent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.exam_id, s.student_id, s.status, s.entry_time, s.end_time,
		       s.exit_time, s.device_id, s.network_addr, s.client_info,
		       u.name, u.username
		FROM sessions s
		JOIN users u ON u.id = s.student_id
		WHERE s.exam_id = $1
		ORDER BY u.name ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionWithStudent
	for rows.Next() {
		var row SessionWithStudent
		var exitTime *time.Time
		if err := rows.Scan(
			&row.Session.ID, &row.Session.ExamID, &row.Session.StudentID,
			&row.Session.Status, &row.Session.EntryTime, &row.Session.EndTime,
			&exitTime, &row.Session.DeviceID, &row.Session.NetworkAddr,
			&row.Session.ClientInfo, &row.StudentName, &row.Username,
		); err != nil {
			return nil, err
		}
		row.Session.ExitTime = exitTime
		out = append(out, row)
	}
	return out, rows.Err()
}
