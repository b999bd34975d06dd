package ai

import (
	"path/filepath"
	"strings"
	"testing"

	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
)

func TestNewDetectorService_MissingModel(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ModelPath = filepath.Join(dir, "missing.pb")
	cfg.ConfigPath = filepath.Join(dir, "missing.pbtxt")

	_, err := NewDetectorService(cfg, logger.Discard())
	if err == nil {
		t.Fatal("Expected an error for a missing model file")
	}
	if !strings.Contains(err.Error(), "model file not found") {
		t.Errorf("Unexpected error: %v", err)
	}
}
