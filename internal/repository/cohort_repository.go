package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// CohortRepository answers cohort membership questions for access gating.
type CohortRepository struct {
	pool *pgxpool.Pool
}

// NewCohortRepository creates a new CohortRepository.
func NewCohortRepository(pool *pgxpool.Pool) *CohortRepository {
	return &CohortRepository{pool: pool}
}

// IsMember reports whether the student belongs to the cohort.
func (r *CohortRepository) IsMember(ctx context.Context, cohortID, studentID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM cohort_members WHERE cohort_id = $1 AND student_id = $2
		)`, cohortID, studentID).Scan(&exists)
	return exists, err
}

// Create inserts a cohort.
func (r *CohortRepository) Create(ctx context.Context, c *model.Cohort) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO cohorts (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
}

// AddMember enrolls a student. Re-enrolling is a no-op.
func (r *CohortRepository) AddMember(ctx context.Context, cohortID, studentID int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cohort_members (cohort_id, student_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, cohortID, studentID)
	return err
}
