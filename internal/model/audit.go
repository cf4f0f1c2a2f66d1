package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction enumerates the recorded session events.
type AuditAction string

const (
	AuditActionLogin  AuditAction = "LOGIN"
	AuditActionLogout AuditAction = "LOGOUT"
)

// SessionAuditEntry is one append-only login/logout record. Entries are never
// mutated or deleted; they exist to reconstruct device-conflict history.
type SessionAuditEntry struct {
	ID          int64       `json:"id,omitempty"`
	SessionID   uuid.UUID   `json:"session_id"`
	Action      AuditAction `json:"action"`
	DeviceID    string      `json:"device_id"`
	NetworkAddr string      `json:"network_addr"`
	ClientInfo  string      `json:"client_info"`
	RecordedAt  time.Time   `json:"recorded_at"`
}
