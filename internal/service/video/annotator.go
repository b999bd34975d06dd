package video

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"dwellwatch/internal/annotate"
	"dwellwatch/internal/model"
)

// Annotator draws overlay plans with OpenCV.
type Annotator struct{}

// NewAnnotator creates an Annotator.
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Annotate draws the boxes, labels and caption onto the frame and returns a
// re-encoded JPEG buffer.
func (a *Annotator) Annotate(frame model.Frame, plan annotate.Plan) ([]byte, error) {
	mat, err := gocv.IMDecode(frame.Image, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	for _, box := range plan.Boxes {
		rect := image.Rect(box.Rect.X1, box.Rect.Y1, box.Rect.X2, box.Rect.Y2)
		if err := gocv.Rectangle(&mat, rect, box.Color, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %v", err)
		}

		pt := image.Pt(box.Rect.X1, max(box.Rect.Y1-5, 12))
		if err := gocv.PutText(&mat, box.Label, pt, gocv.FontHersheySimplex, 0.5, box.Color, 1); err != nil {
			return nil, fmt.Errorf("failed to draw text: %v", err)
		}
	}

	if err := gocv.PutText(&mat, plan.Caption, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, annotate.CaptionColor, 2); err != nil {
		return nil, fmt.Errorf("failed to draw caption: %v", err)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	finalImage := make([]byte, len(buf.GetBytes()))
	copy(finalImage, buf.GetBytes())
	return finalImage, nil
}
