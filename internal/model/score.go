package model

import "github.com/google/uuid"

// SlotOutcome classifies one slot against the answer key.
type SlotOutcome string

const (
	SlotCorrect    SlotOutcome = "CORRECT"
	SlotIncorrect  SlotOutcome = "INCORRECT"
	SlotUnanswered SlotOutcome = "UNANSWERED"
)

// SlotScore is the per-slot breakdown of a score computation.
type SlotScore struct {
	Slot    string      `json:"slot"`
	Given   *string     `json:"given"`
	Outcome SlotOutcome `json:"outcome"`
}

// ScoreResult is derived from (exam definition, answer ledger). It is never
// authoritative state; it may be recomputed at any time, including for
// sessions that are still running.
type ScoreResult struct {
	SessionID  uuid.UUID   `json:"session_id"`
	ExamID     uuid.UUID   `json:"exam_id"`
	StudentID  int         `json:"student_id"`
	TotalSlots int         `json:"total_slots"`
	Correct    int         `json:"correct"`
	Incorrect  int         `json:"incorrect"`
	Unanswered int         `json:"unanswered"`
	RawPoints  int         `json:"raw_points"`
	Percentage float64     `json:"percentage"`
	Slots      []SlotScore `json:"slots,omitempty"`
}
