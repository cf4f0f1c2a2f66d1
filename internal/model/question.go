package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Question is a single entry of a structured-mode exam.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	ExamID        uuid.UUID       `json:"exam_id"`
	QuestionText  string          `json:"question_text"`
	Options       json.RawMessage `json:"options"`
	CorrectOption string          `json:"correct_option"`
	OrderNum      int             `json:"order_num"`
}

// QuestionForStudent is a question stripped of the correct answer.
type QuestionForStudent struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options"`
	OrderNum     int             `json:"order_num"`
}

// ForStudent strips the correct answer before the question leaves the server.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      q.Options,
		OrderNum:     q.OrderNum,
	}
}
