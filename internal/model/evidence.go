package model

import "time"

// EvidenceInput is what the pipeline hands to an evidence store for one
// violation: the raw frame plus the context it was captured in.
type EvidenceInput struct {
	Source     string
	IdentityID IdentityID
	Frame      Frame
	Detections []Detection
}

// Evidence is a stored snapshot resolved from its reference.
type Evidence struct {
	Ref            string        `json:"ref"`
	Source         string        `json:"source"`
	IdentityID     IdentityID    `json:"identity_id"`
	FrameIndex     int           `json:"frame_index"`
	FrameTimestamp time.Duration `json:"frame_timestamp"`
	Detections     []Detection   `json:"detections"`
	ContentType    string        `json:"content_type"`
	Size           int64         `json:"size"`
	CreatedAt      time.Time     `json:"created_at"`
	Image          []byte        `json:"-"`
}
