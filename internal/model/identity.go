package model

import (
	"strconv"
	"time"
)

// IdentityID is the label the external tracker assigns to one physical person
// for the duration of a session.
type IdentityID int64

// String formats the identity for logs, labels and storage keys.
func (id IdentityID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// TrackedIdentity records when an identity was first and most recently seen,
// as offsets from the start of the video.
type TrackedIdentity struct {
	ID        IdentityID    `json:"id"`
	FirstSeen time.Duration `json:"first_seen"`
	LastSeen  time.Duration `json:"last_seen"`
	// Visits counts re-entries when a re-entry gap is configured.
	Visits int `json:"visits"`
}

// Duration is the dwell time of the identity in its current visit.
func (t TrackedIdentity) Duration() time.Duration {
	return t.LastSeen - t.FirstSeen
}
