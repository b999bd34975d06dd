package model

// IdentityStatus is the operator-facing view of one tracked identity.
type IdentityStatus struct {
	ID           IdentityID `json:"id"`
	DwellSeconds float64    `json:"dwell_seconds"`
	Violation    bool       `json:"violation"`
}

// FrameStatus is published after every processed frame.
type FrameStatus struct {
	SessionID  string           `json:"session_id"`
	Source     string           `json:"source"`
	FrameIndex int              `json:"frame_index"`
	Seconds    float64          `json:"seconds"`
	InScene    int              `json:"in_scene"`
	Identities []IdentityStatus `json:"identities"`
}
