package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/model"
	"dwellwatch/internal/repository"
)

// FileStore writes evidence frames under the evidence directory and indexes
// them in the database so they can be served back by reference.
type FileStore struct {
	dir    string
	index  repository.EvidenceIndex
	logger *logger.Logger
}

// NewFileStore creates a FileStore rooted at the configured evidence directory.
func NewFileStore(config *config.Config, logger *logger.Logger, index repository.EvidenceIndex) *FileStore {
	return &FileStore{
		dir:    config.EvidenceDirectory,
		index:  index,
		logger: logger,
	}
}

// Put saves the frame as <dir>/<source>/<identity>_<uuid>.jpg and returns the reference.
func (s *FileStore) Put(ctx context.Context, in model.EvidenceInput) (string, error) {
	if len(in.Frame.Image) == 0 {
		return "", repository.Wrap("save evidence", repository.ErrConstraintViolation, errors.New("empty frame"))
	}
	if err := ctx.Err(); err != nil {
		return "", repository.Wrap("save evidence", repository.ErrStorageUnavailable, err)
	}

	dir := filepath.Join(s.dir, safeName(in.Source))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", repository.Wrap("create evidence directory", repository.ErrStorageIO, err)
	}

	ref := newRef(in.IdentityID)
	fullpath := filepath.Join(dir, ref+".jpg")
	if err := os.WriteFile(fullpath, in.Frame.Image, 0644); err != nil {
		return "", repository.Wrap("write evidence", repository.ErrStorageIO, err)
	}

	ev := &model.Evidence{
		Ref:            ref,
		Source:         in.Source,
		IdentityID:     in.IdentityID,
		FrameIndex:     in.Frame.Index,
		FrameTimestamp: in.Frame.Timestamp,
		Detections:     in.Detections,
		ContentType:    contentTypeJPEG,
		Size:           int64(len(in.Frame.Image)),
		CreatedAt:      time.Now(),
	}
	if err := s.index.Insert(ctx, ev, fullpath); err != nil {
		// An unindexed file can never be resolved, so drop it.
		if rmErr := os.Remove(fullpath); rmErr != nil {
			s.logger.Warning("Error removing orphaned evidence %s: %v", fullpath, rmErr)
		}
		return "", err
	}

	s.logger.Info("Saved evidence %s for identity %d from %s", ref, in.IdentityID, in.Source)
	return ref, nil
}

// Get resolves a reference to its metadata and image bytes.
func (s *FileStore) Get(ctx context.Context, ref string) (*model.Evidence, error) {
	if !validRef(ref) {
		return nil, repository.Wrap("get evidence", repository.ErrNotFound, fmt.Errorf("invalid ref %q", ref))
	}

	ev, path, err := s.index.Lookup(ctx, ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, repository.Wrap("read evidence", repository.ErrNotFound, err)
	}
	if err != nil {
		return nil, repository.Wrap("read evidence", repository.ErrStorageIO, err)
	}

	ev.Image = data
	return ev, nil
}
