package pipeline

import (
	"math"

	"dwellwatch/internal/model"
)

// Sanitize validates oracle output for one frame. Detections with an invalid
// confidence, a negative identity or an empty box are dropped; boxes are
// clamped to the frame; an identity reported more than once keeps its most
// confident detection. Order of first appearance is preserved.
func Sanitize(frame model.Frame, raw []model.Detection) ([]model.Detection, int) {
	kept := make([]model.Detection, 0, len(raw))
	position := make(map[model.IdentityID]int, len(raw))
	dropped := 0

	for _, det := range raw {
		if math.IsNaN(det.Confidence) || det.Confidence < 0 || det.Confidence > 1 || det.IdentityID < 0 {
			dropped++
			continue
		}
		if frame.Width > 0 && frame.Height > 0 {
			det.Box = det.Box.Clamp(frame.Width, frame.Height)
		}
		if det.Box.Area() == 0 {
			dropped++
			continue
		}

		if i, seen := position[det.IdentityID]; seen {
			dropped++
			if det.Confidence > kept[i].Confidence {
				kept[i] = det
			}
			continue
		}
		position[det.IdentityID] = len(kept)
		kept = append(kept, det)
	}

	return kept, dropped
}
