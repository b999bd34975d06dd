package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dwellwatch/internal/model"
	"dwellwatch/internal/repository"
)

const evidenceSchema = `
	CREATE TABLE IF NOT EXISTS evidence (
		ref TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		person_id INTEGER NOT NULL,
		frame_index INTEGER NOT NULL,
		frame_ts_ms INTEGER NOT NULL,
		filepath TEXT NOT NULL,
		filesize INTEGER DEFAULT 0,
		content_type TEXT NOT NULL,
		detections TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_evidence_source ON evidence(source);
	CREATE INDEX IF NOT EXISTS idx_evidence_person_id ON evidence(person_id);
`

// EvidenceRepository implements repository.EvidenceIndex for SQLite.
type EvidenceRepository struct {
	db     *DB
	schema schema
}

// NewEvidenceRepository creates a new SQLite evidence index.
func NewEvidenceRepository(db *DB) *EvidenceRepository {
	return &EvidenceRepository{db: db, schema: schema{ddl: evidenceSchema}}
}

// Insert records an evidence file.
func (r *EvidenceRepository) Insert(ctx context.Context, ev *model.Evidence, path string) error {
	detections, err := json.Marshal(ev.Detections)
	if err != nil {
		return repository.Wrap("encode detections", repository.ErrConstraintViolation, err)
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	r.db.Lock()
	defer r.db.Unlock()

	if err := r.schema.ensure(ctx, r.db.Conn()); err != nil {
		return err
	}

	_, err = r.db.Conn().ExecContext(ctx, `
		INSERT INTO evidence (ref, source, person_id, frame_index, frame_ts_ms, filepath, filesize, content_type, detections, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.Ref, ev.Source, int64(ev.IdentityID), ev.FrameIndex, ev.FrameTimestamp.Milliseconds(),
		path, ev.Size, ev.ContentType, string(detections), ev.CreatedAt.UTC())
	if err != nil {
		return classify("insert evidence", err)
	}
	return nil
}

// Lookup resolves a reference to its metadata and file path.
func (r *EvidenceRepository) Lookup(ctx context.Context, ref string) (*model.Evidence, string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if err := r.schema.ensure(ctx, r.db.Conn()); err != nil {
		return nil, "", err
	}

	var (
		ev         model.Evidence
		personID   int64
		frameTsMs  int64
		path       string
		detections string
	)
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT ref, source, person_id, frame_index, frame_ts_ms, filepath, filesize, content_type, detections, created_at
		FROM evidence WHERE ref = ?
	`, ref).Scan(&ev.Ref, &ev.Source, &personID, &ev.FrameIndex, &frameTsMs, &path, &ev.Size, &ev.ContentType, &detections, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", repository.Wrap("lookup evidence", repository.ErrNotFound, fmt.Errorf("ref %q", ref))
	}
	if err != nil {
		return nil, "", classify("lookup evidence", err)
	}

	ev.IdentityID = model.IdentityID(personID)
	ev.FrameTimestamp = time.Duration(frameTsMs) * time.Millisecond
	if err := json.Unmarshal([]byte(detections), &ev.Detections); err != nil {
		return nil, "", repository.Wrap("decode detections", repository.ErrStorageIO, err)
	}
	return &ev, path, nil
}
