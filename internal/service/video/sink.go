package video

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"

	"dwellwatch/internal/model"
)

// Codec used for annotated output.
const Codec = "mp4v"

// FileSink writes annotated frames to a video file. The writer is created on
// the first frame, once the frame size is known.
type FileSink struct {
	path   string
	fps    float64
	writer *gocv.VideoWriter
	closed bool
	mu     sync.Mutex
}

// NewFileSink prepares a sink writing to path at the given frame rate.
func NewFileSink(path string, fps float64) *FileSink {
	return &FileSink{path: path, fps: fps}
}

// Path is the output file location.
func (s *FileSink) Path() string {
	return s.path
}

// Write appends one frame.
func (s *FileSink) Write(frame model.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("video sink %s is closed", s.path)
	}

	mat, err := gocv.IMDecode(frame.Image, gocv.IMReadColor)
	if err != nil {
		return fmt.Errorf("failed to decode frame %d: %w", frame.Index, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return fmt.Errorf("frame %d decoded to an empty image", frame.Index)
	}

	if s.writer == nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		writer, err := gocv.VideoWriterFile(s.path, Codec, s.fps, mat.Cols(), mat.Rows(), true)
		if err != nil {
			return fmt.Errorf("failed to create video writer: %w", err)
		}
		if !writer.IsOpened() {
			writer.Close()
			return fmt.Errorf("failed to open video writer for %s", s.path)
		}
		s.writer = writer
	}

	if err := s.writer.Write(mat); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", frame.Index, err)
	}
	return nil
}

// Close finalizes the file. Calling it again is a no-op.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
