package model

import "time"

// Frame is a single decoded video frame. Image holds the JPEG-encoded raster.
type Frame struct {
	// Index is 1-based within the session.
	Index     int
	Timestamp time.Duration
	Width     int
	Height    int
	Image     []byte
}
