package model

import (
	"time"

	"github.com/google/uuid"
)

// AnswerRecord is the latest value submitted for one slot of one session.
// A nil Value is an explicit "no answer" overwrite, distinct from the slot
// never having been answered (no record at all).
type AnswerRecord struct {
	SessionID uuid.UUID `json:"session_id"`
	Slot      string    `json:"slot"`
	Value     *string   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnswerInput is one slot/value pair of a submission batch.
type AnswerInput struct {
	Slot  string  `json:"slot" binding:"required,min=1,max=64"`
	Value *string `json:"value" binding:"omitempty,max=255"`
}

// SubmitAnswersRequest carries one or many answers. A batch is applied
// all-or-nothing.
type SubmitAnswersRequest struct {
	Slot    string        `json:"slot" binding:"omitempty,max=64"`
	Value   *string       `json:"value" binding:"omitempty,max=255"`
	Answers []AnswerInput `json:"answers" binding:"omitempty,max=200,dive"`
}

// Inputs normalizes the request into a flat batch.
func (r *SubmitAnswersRequest) Inputs() []AnswerInput {
	if len(r.Answers) > 0 {
		return r.Answers
	}
	if r.Slot == "" {
		return nil
	}
	return []AnswerInput{{Slot: r.Slot, Value: r.Value}}
}
