package tracking

import (
	"context"
	"fmt"

	"dwellwatch/internal/model"
)

// Detector finds people in one encoded frame.
type Detector interface {
	DetectPeople(image []byte) ([]Candidate, error)
}

// Oracle turns per-frame detections into identity-labelled detections. It is
// stateful: one Oracle per session, frames in order.
type Oracle struct {
	detector   Detector
	associator *Associator
}

// NewOracle creates an oracle with a fresh associator.
func NewOracle(detector Detector, associator *Associator) *Oracle {
	if associator == nil {
		associator = NewAssociator(0, 0)
	}
	return &Oracle{detector: detector, associator: associator}
}

// Track detects and labels the people in frame.
func (o *Oracle) Track(ctx context.Context, frame model.Frame) ([]model.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candidates, err := o.detector.DetectPeople(frame.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to detect people in frame %d: %w", frame.Index, err)
	}
	return o.associator.Update(candidates), nil
}
