package pipeline

import (
	"context"

	"dwellwatch/internal/annotate"
	"dwellwatch/internal/model"
)

// FrameSource yields decoded frames in order. Next returns io.EOF once the
// source is exhausted. Close must be safe to call more than once.
type FrameSource interface {
	FPS() float64
	Next(ctx context.Context) (model.Frame, error)
	Close() error
}

// Oracle assigns identities to the people in a frame. It keeps state between
// calls, so frames must be passed in order and an Oracle must not be shared
// between sessions.
type Oracle interface {
	Track(ctx context.Context, frame model.Frame) ([]model.Detection, error)
}

// VideoSink receives annotated frames in order.
type VideoSink interface {
	Write(frame model.Frame) error
	Close() error
}

// EvidenceSink stores the snapshot for a violation and returns its reference.
type EvidenceSink interface {
	Put(ctx context.Context, in model.EvidenceInput) (string, error)
}

// AuditSink appends violation events to the audit log.
type AuditSink interface {
	Append(ctx context.Context, event model.ViolationEvent) error
}

// Annotator draws an overlay plan onto a frame and returns the encoded result.
type Annotator interface {
	Annotate(frame model.Frame, plan annotate.Plan) ([]byte, error)
}

// StatusPublisher receives the live status after every frame.
type StatusPublisher interface {
	Publish(status model.FrameStatus)
}
