package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of an exam session.
type SessionStatus string

const (
	// SessionStatusActive means the student is working on an exam right now,
	// bound to exactly one device.
	SessionStatusActive SessionStatus = "ACTIVE"
	// SessionStatusInactive means the student exited gracefully and may
	// resume; the end-time clock keeps running.
	SessionStatusInactive SessionStatus = "INACTIVE"
	// SessionStatusCompleted means the student submitted. Terminal.
	SessionStatusCompleted SessionStatus = "COMPLETED"
	// SessionStatusExpired means end_time passed before submission. Terminal.
	SessionStatusExpired SessionStatus = "EXPIRED"
)

// validTransitions encodes the session state machine. Anything absent here is
// forbidden; in particular the terminal states have no outgoing edges.
var validTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusActive:   {SessionStatusInactive, SessionStatusCompleted, SessionStatusExpired},
	SessionStatusInactive: {SessionStatusActive, SessionStatusCompleted, SessionStatusExpired},
}

// CanTransition reports whether from → to is a legal status change.
func (from SessionStatus) CanTransition(to SessionStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func (s SessionStatus) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Session is one student's single attempt at one exam. At most one session
// exists per (exam, student), enforced by the schema.
type Session struct {
	ID        uuid.UUID     `json:"id"`
	ExamID    uuid.UUID     `json:"exam_id"`
	StudentID int           `json:"student_id"`
	Status    SessionStatus `json:"status"`

	// EntryTime is the first entry; EndTime is fixed at creation as
	// EntryTime + exam duration and never moves afterwards. Pausing does not
	// stop the clock.
	EntryTime time.Time  `json:"entry_time"`
	EndTime   time.Time  `json:"end_time"`
	ExitTime  *time.Time `json:"exit_time,omitempty"`

	DeviceID    string `json:"device_id"`
	NetworkAddr string `json:"network_addr"`
	ClientInfo  string `json:"client_info"`
}

// EffectiveStatus resolves lazy expiry: a non-terminal session whose end time
// has passed reads as EXPIRED regardless of what the row still says. Pure
// function of (stored status, end time, now) so every caller agrees without
// coordination.
func (s *Session) EffectiveStatus(now time.Time) SessionStatus {
	if s.Status.Terminal() {
		return s.Status
	}
	if !now.Before(s.EndTime) {
		return SessionStatusExpired
	}
	return s.Status
}

// Remaining returns the time left on the session clock, floored at zero.
func (s *Session) Remaining(now time.Time) time.Duration {
	if !now.Before(s.EndTime) {
		return 0
	}
	return s.EndTime.Sub(now)
}

// EnterRequest is the payload for entering (or resuming) an exam.
type EnterRequest struct {
	DeviceID   string `json:"device_id" binding:"required,min=1,max=128"`
	ClientInfo string `json:"client_info" binding:"omitempty,max=255"`
}

// ExitRequest is the payload for gracefully exiting a session.
type ExitRequest struct {
	DeviceID string `json:"device_id" binding:"required,min=1,max=128"`
}
