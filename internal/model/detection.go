package model

// BoundingBox is an axis-aligned box in pixel coordinates, (X1,Y1) top-left and
// (X2,Y2) bottom-right.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width of the box in pixels.
func (b BoundingBox) Width() int {
	return b.X2 - b.X1
}

// Height of the box in pixels.
func (b BoundingBox) Height() int {
	return b.Y2 - b.Y1
}

// Area returns the pixel area, zero for degenerate boxes.
func (b BoundingBox) Area() int {
	if b.Width() <= 0 || b.Height() <= 0 {
		return 0
	}
	return b.Width() * b.Height()
}

// Clamp limits the box to a frame of the given size.
func (b BoundingBox) Clamp(width, height int) BoundingBox {
	b.X1 = clamp(b.X1, 0, width)
	b.X2 = clamp(b.X2, 0, width)
	b.Y1 = clamp(b.Y1, 0, height)
	b.Y2 = clamp(b.Y2, 0, height)
	return b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Detection is one identity observed in one frame.
type Detection struct {
	IdentityID IdentityID  `json:"identity_id"`
	Box        BoundingBox `json:"bbox"`
	Confidence float64     `json:"confidence"`
}
