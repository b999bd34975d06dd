package model

import "time"

// ViolationEvent is the audit record for one identity that exceeded the dwell
// threshold in one frame.
type ViolationEvent struct {
	IdentityID   IdentityID `json:"identity_id"`
	SessionStart time.Time  `json:"session_start"`
	SessionEnd   time.Time  `json:"session_end"`
	Source       string     `json:"source"`
	EvidenceRef  string     `json:"evidence_ref"`
}

// AuditRecord is a persisted ViolationEvent as read back from the audit log.
type AuditRecord struct {
	ID int64 `json:"id"`
	ViolationEvent
	CreatedAt time.Time `json:"created_at"`
}
