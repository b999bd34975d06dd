package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dwellwatch/internal/config"
	"dwellwatch/internal/dto"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/model"
)

func TestOpenStores_SQLiteAndFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(dir, "data", "dwellwatch.db")
	cfg.EvidenceDirectory = filepath.Join(dir, "violations")

	stores, err := OpenStores(cfg, logger.Discard())
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	ref, err := stores.Evidence.Put(ctx, model.EvidenceInput{
		Source:     "lobby.mp4",
		IdentityID: 7,
		Frame:      model.Frame{Index: 26, Timestamp: 26 * time.Second, Image: []byte{0xFF, 0xD8, 0xFF, 0xD9}},
	})
	require.NoError(t, err)

	start := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	require.NoError(t, stores.Audit.Append(ctx, model.ViolationEvent{
		IdentityID:   7,
		SessionStart: start,
		SessionEnd:   start.Add(25 * time.Second),
		Source:       "lobby.mp4",
		EvidenceRef:  ref,
	}))

	records, err := stores.Audit.List(ctx, &dto.ViolationFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)

	evidence, err := stores.Evidence.Get(ctx, records[0].EvidenceRef)
	require.NoError(t, err)
	assert.Equal(t, model.IdentityID(7), evidence.IdentityID)
	assert.Equal(t, 26, evidence.FrameIndex)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xD9}, evidence.Image)
}

func TestOpenStores_InvalidDatabasePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(blocker, "dwellwatch.db")

	_, err := OpenStores(cfg, logger.Discard())
	assert.Error(t, err)
}
