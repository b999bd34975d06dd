// Package annotate decides what gets drawn on an output frame. The drawing
// itself lives with the video codec.
package annotate

import (
	"fmt"
	"image/color"
	"time"

	"dwellwatch/internal/model"
)

// ViolationColor marks identities over the dwell threshold.
var ViolationColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// CaptionColor is used for the scene counter.
var CaptionColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// palette holds identity colors. Red is reserved for violations.
var palette = []color.RGBA{
	{R: 0, G: 200, B: 0, A: 255},
	{R: 0, G: 128, B: 255, A: 255},
	{R: 255, G: 200, B: 0, A: 255},
	{R: 200, G: 0, B: 200, A: 255},
	{R: 0, G: 220, B: 220, A: 255},
	{R: 255, G: 128, B: 0, A: 255},
	{R: 128, G: 255, B: 128, A: 255},
	{R: 160, G: 160, B: 255, A: 255},
}

// Box is one rectangle with its label.
type Box struct {
	Rect      model.BoundingBox
	Color     color.RGBA
	Label     string
	Violation bool
}

// Plan is everything drawn on one frame.
type Plan struct {
	Boxes   []Box
	Caption string
}

// ColorFor returns a stable color for an identity.
func ColorFor(id model.IdentityID) color.RGBA {
	i := int64(id) % int64(len(palette))
	if i < 0 {
		i += int64(len(palette))
	}
	return palette[i]
}

// Label formats the text shown above an identity's box.
func Label(id model.IdentityID, dwell time.Duration) string {
	return fmt.Sprintf("ID %d %.1fs", id, dwell.Seconds())
}

// Caption formats the scene counter.
func Caption(inScene int) string {
	return fmt.Sprintf("People in scene: %d", inScene)
}

// Build plans the overlay for one frame. dwell supplies the current dwell
// time per identity; violating marks identities drawn in ViolationColor.
func Build(detections []model.Detection, dwell map[model.IdentityID]time.Duration, violating map[model.IdentityID]struct{}) Plan {
	plan := Plan{
		Boxes:   make([]Box, 0, len(detections)),
		Caption: Caption(len(detections)),
	}

	for _, det := range detections {
		_, isViolation := violating[det.IdentityID]
		c := ColorFor(det.IdentityID)
		if isViolation {
			c = ViolationColor
		}
		plan.Boxes = append(plan.Boxes, Box{
			Rect:      det.Box,
			Color:     c,
			Label:     Label(det.IdentityID, dwell[det.IdentityID]),
			Violation: isViolation,
		})
	}

	return plan
}
