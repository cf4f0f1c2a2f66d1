package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

const examColumns = `id, title, author_id, access_mode, cohort_id, topic,
	window_start, window_end, duration_minutes, content_mode, document_ref,
	answer_key, created_at, updated_at`

// ExamRepository handles exam definition data access. Exam definitions are
// read-only input to the session engine; writes exist for authoring tools and
// tests.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row interface{ Scan(...any) error }) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(
		&e.ID, &e.Title, &e.AuthorID, &e.AccessMode, &e.CohortID, &e.Topic,
		&e.WindowStart, &e.WindowEnd, &e.DurationMinutes, &e.ContentMode,
		&e.DocumentRef, &e.AnswerKey, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam definition.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id)
	return scanExam(row)
}

// ListVisibleToStudent returns the exams a student may see in the lobby:
// always-available practice exams plus windowed exams targeting one of the
// student's cohorts.
func (r *ExamRepository) ListVisibleToStudent(ctx context.Context, studentID int) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+examColumns+`
		FROM exams
		WHERE access_mode = 'ALWAYS'
		   OR (access_mode = 'WINDOWED' AND cohort_id IN (
		       SELECT cohort_id FROM cohort_members WHERE student_id = $1))
		ORDER BY window_start NULLS LAST, created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// ListByAuthorPaginated returns one page of an instructor's exams plus the
// total count.
func (r *ExamRepository) ListByAuthorPaginated(ctx context.Context, authorID, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exams WHERE author_id = $1`, authorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE author_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, authorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, 0, err
		}
		exams = append(exams, *e)
	}
	return exams, total, rows.Err()
}

// Create inserts a new exam definition.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO exams (title, author_id, access_mode, cohort_id, topic,
			window_start, window_end, duration_minutes, content_mode,
			document_ref, answer_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		e.Title, e.AuthorID, e.AccessMode, e.CohortID, e.Topic,
		e.WindowStart, e.WindowEnd, e.DurationMinutes, e.ContentMode,
		e.DocumentRef, e.AnswerKey,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}
