// Package video reads and writes video files with OpenCV. Frames cross the
// package boundary as JPEG bytes.
package video

import (
	"context"
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"

	"dwellwatch/internal/model"
)

// FileSource decodes a video file frame by frame.
type FileSource struct {
	path    string
	capture *gocv.VideoCapture
	mat     gocv.Mat
	fps     float64
	closed  bool
	mu      sync.Mutex
}

// OpenFile opens a video file for reading.
func OpenFile(path string) (*FileSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		if capture != nil {
			capture.Close()
		}
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open video %s", path)
	}

	return &FileSource{
		path:    path,
		capture: capture,
		mat:     gocv.NewMat(),
		fps:     capture.Get(gocv.VideoCaptureFPS),
	}, nil
}

// FPS is the frame rate reported by the container.
func (s *FileSource) FPS() float64 {
	return s.fps
}

// Next decodes the next frame and re-encodes it as JPEG. It returns io.EOF
// at the end of the file.
func (s *FileSource) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.Frame{}, io.EOF
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return model.Frame{}, io.EOF
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.mat)
	if err != nil {
		return model.Frame{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	image := make([]byte, len(buf.GetBytes()))
	copy(image, buf.GetBytes())

	return model.Frame{
		Width:  s.mat.Cols(),
		Height: s.mat.Rows(),
		Image:  image,
	}, nil
}

// Close releases the capture. Calling it again is a no-op.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.capture.Close()
}
