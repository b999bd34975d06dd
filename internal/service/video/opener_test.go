package video

import (
	"path/filepath"
	"testing"

	"dwellwatch/internal/config"
	"dwellwatch/internal/service/session"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		dir, video, expected string
	}{
		{"out", "/videos/3f2a.mp4", filepath.Join("out", "3f2a_annotated.mp4")},
		{"out", "clip.avi", filepath.Join("out", "clip_annotated.mp4")},
		{"out", "noext", filepath.Join("out", "noext_annotated.mp4")},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.dir, tt.video); got != tt.expected {
			t.Errorf("OutputPath(%q, %q) = %q, expected %q", tt.dir, tt.video, got, tt.expected)
		}
	}
}

func TestOpener_MissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDirectory = t.TempDir()
	opener := NewOpener(cfg, nil)

	_, err := opener.Open(session.Job{ID: "x", Source: "x.mp4", VideoPath: filepath.Join(t.TempDir(), "missing.mp4")})
	if err == nil {
		t.Fatal("Expected an error for a missing video")
	}
}

func TestFileSink_CloseWithoutFrames(t *testing.T) {
	sink := NewFileSink(filepath.Join(t.TempDir(), "out.mp4"), 25)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
}
