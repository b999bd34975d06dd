package dto

import "time"

// ViolationInfo is one audit row as shown to the operator. Times are encoded
// as RFC 3339 with their offset.
type ViolationInfo struct {
	ID           int64     `json:"id"`
	IdentityID   int64     `json:"identityId"`
	Source       string    `json:"source"`
	SessionStart time.Time `json:"sessionStart"`
	SessionEnd   time.Time `json:"sessionEnd"`
	DwellSeconds float64   `json:"dwellSeconds"`
	EvidenceRef  string    `json:"evidenceRef"`
	EvidenceURL  string    `json:"evidenceUrl"`
}
