package pipeline

import (
	"errors"
	"fmt"

	"dwellwatch/internal/model"
)

// Session-fatal failures.
var (
	ErrDetectorFailure    = errors.New("detector failure")
	ErrFrameSourceFailure = errors.New("frame source failure")
	ErrVideoSinkFailure   = errors.New("video sink failure")
)

// Per-event failures. The loop logs them and carries on.
var (
	ErrEvidenceSinkFailure = errors.New("evidence sink failure")
	ErrAuditSinkFailure    = errors.New("audit sink failure")
)

// SessionError is the single terminal error of a failed session.
type SessionError struct {
	Stage State
	Frame int
	Kind  error
	Err   error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session failed in %s at frame %d: %v: %v", e.Stage, e.Frame, e.Kind, e.Err)
}

func (e *SessionError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// PersistError describes one violation event that could not be written.
type PersistError struct {
	Sink       string
	IdentityID model.IdentityID
	Frame      int
	Kind       error
	Err        error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s sink failed for identity %d at frame %d: %v", e.Sink, e.IdentityID, e.Frame, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
