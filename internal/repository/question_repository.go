package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// QuestionRepository handles structured-mode question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam returns an exam's questions in order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, exam_id, question_text, options, correct_option, order_num
		FROM questions WHERE exam_id = $1 ORDER BY order_num ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.Options, &q.CorrectOption, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AnswerKeyByExam returns question ID → correct option for structured-mode
// scoring. Slot identifiers in the answer ledger are question UUIDs.
func (r *QuestionRepository) AnswerKeyByExam(ctx context.Context, examID uuid.UUID) (map[string]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, correct_option FROM questions WHERE exam_id = $1`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	key := make(map[string]string)
	for rows.Next() {
		var id uuid.UUID
		var correct string
		if err := rows.Scan(&id, &correct); err != nil {
			return nil, err
		}
		key[id.String()] = correct
	}
	return key, rows.Err()
}

// Add inserts a question for an exam.
func (r *QuestionRepository) Add(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO questions (exam_id, question_text, options, correct_option, order_num)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		q.ExamID, q.QuestionText, q.Options, q.CorrectOption, q.OrderNum,
	).Scan(&q.ID)
}
