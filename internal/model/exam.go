package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AccessMode determines when and by whom an exam may be entered.
type AccessMode string

const (
	// AccessModeWindowed restricts entry to a fixed wall-clock window and to
	// members of the exam's cohort.
	AccessModeWindowed AccessMode = "WINDOWED"
	// AccessModeAlways is used for topic-practice exams: any authenticated
	// student may enter at any time.
	AccessModeAlways AccessMode = "ALWAYS"
)

// ContentMode determines how slots and answer keys are resolved.
type ContentMode string

const (
	// ContentModeDocument references an external document; answers are keyed
	// by sequential slot number against the exam's answer key.
	ContentModeDocument ContentMode = "DOCUMENT"
	// ContentModeStructured references a fixed question list; answers are
	// keyed by question ID.
	ContentModeStructured ContentMode = "STRUCTURED"
)

// Exam is the immutable-during-session definition of an assessment.
type Exam struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	AuthorID int       `json:"author_id"`

	AccessMode  AccessMode `json:"access_mode"`
	CohortID    *int       `json:"cohort_id,omitempty"`
	Topic       *string    `json:"topic,omitempty"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`

	// DurationMinutes is the per-session wall-clock length, counted from
	// first entry. Independent of the access window.
	DurationMinutes int `json:"duration_minutes"`

	ContentMode ContentMode `json:"content_mode"`
	// DocumentRef is an opaque reference into the external content store
	// (document mode only).
	DocumentRef *string `json:"document_ref,omitempty"`
	// AnswerKey maps slot number → correct value (document mode only). May be
	// absent; scoring then degrades to zero questions.
	AnswerKey json.RawMessage `json:"answer_key,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateExamRequest is the teacher payload for defining an exam.
type CreateExamRequest struct {
	Title           string          `json:"title" binding:"required,min=3,max=200"`
	AccessMode      AccessMode      `json:"access_mode" binding:"required,oneof=WINDOWED ALWAYS"`
	CohortID        *int            `json:"cohort_id" binding:"omitempty,min=1"`
	Topic           *string         `json:"topic" binding:"omitempty,max=100"`
	WindowStart     *time.Time      `json:"window_start"`
	WindowEnd       *time.Time      `json:"window_end"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,min=1,max=600"`
	ContentMode     ContentMode     `json:"content_mode" binding:"required,oneof=DOCUMENT STRUCTURED"`
	DocumentRef     *string         `json:"document_ref" binding:"omitempty,max=255"`
	AnswerKey       json.RawMessage `json:"answer_key"`
}

// AddQuestionRequest is the teacher payload for one structured-mode question.
type AddQuestionRequest struct {
	QuestionText  string          `json:"question_text" binding:"required,min=1"`
	Options       json.RawMessage `json:"options" binding:"required"`
	CorrectOption string          `json:"correct_option" binding:"required,min=1,max=64"`
	OrderNum      int             `json:"order_num" binding:"required,min=1"`
}

// Duration returns the per-session duration as a time.Duration.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// InWindow reports whether now falls inside the exam's access window.
// Always-available exams have no window.
func (e *Exam) InWindow(now time.Time) bool {
	if e.AccessMode != AccessModeWindowed {
		return true
	}
	if e.WindowStart == nil || e.WindowEnd == nil {
		return false
	}
	return !now.Before(*e.WindowStart) && now.Before(*e.WindowEnd)
}

// DocumentKey decodes the document-mode answer key. A nil or empty key yields
// an empty map.
func (e *Exam) DocumentKey() (map[string]string, error) {
	key := make(map[string]string)
	if len(e.AnswerKey) == 0 {
		return key, nil
	}
	if err := json.Unmarshal(e.AnswerKey, &key); err != nil {
		return nil, err
	}
	return key, nil
}
