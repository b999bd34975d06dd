package sqlite

import (
	"context"

	"dwellwatch/internal/dto"
	"dwellwatch/internal/model"
	"dwellwatch/internal/repository"
)

const auditSchema = `
	CREATE TABLE IF NOT EXISTS tracking (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		person_id INTEGER NOT NULL CHECK (person_id >= 0),
		enter_time DATETIME NOT NULL,
		exit_time DATETIME NOT NULL,
		video_name TEXT NOT NULL CHECK (length(video_name) > 0),
		evidence_ref TEXT NOT NULL CHECK (length(evidence_ref) > 0),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tracking_video_name ON tracking(video_name);
	CREATE INDEX IF NOT EXISTS idx_tracking_person_id ON tracking(person_id);
	CREATE INDEX IF NOT EXISTS idx_tracking_enter_time ON tracking(enter_time);
`

// AuditRepository implements repository.AuditRepository for SQLite.
type AuditRepository struct {
	db     *DB
	schema schema
}

// NewAuditRepository creates a new SQLite audit log.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db, schema: schema{ddl: auditSchema}}
}

// Append writes one violation event.
func (r *AuditRepository) Append(ctx context.Context, event model.ViolationEvent) error {
	if err := repository.ValidateEvent(event); err != nil {
		return err
	}

	r.db.Lock()
	defer r.db.Unlock()

	if err := r.schema.ensure(ctx, r.db.Conn()); err != nil {
		return err
	}

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO tracking (person_id, enter_time, exit_time, video_name, evidence_ref)
		VALUES (?, ?, ?, ?, ?)
	`, int64(event.IdentityID), event.SessionStart.UTC(), event.SessionEnd.UTC(), event.Source, event.EvidenceRef)
	if err != nil {
		return classify("append violation", err)
	}
	return nil
}

// List returns audit records matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter *dto.ViolationFilter) ([]model.AuditRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if err := r.schema.ensure(ctx, r.db.Conn()); err != nil {
		return nil, err
	}

	where, args := whereClause(filter)
	query := `
		SELECT id, person_id, enter_time, exit_time, video_name, evidence_ref, created_at
		FROM tracking
	` + where + " ORDER BY id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("query violations", err)
	}
	defer rows.Close()

	var records []model.AuditRecord
	for rows.Next() {
		var rec model.AuditRecord
		var personID int64
		if err := rows.Scan(&rec.ID, &personID, &rec.SessionStart, &rec.SessionEnd, &rec.Source, &rec.EvidenceRef, &rec.CreatedAt); err != nil {
			return nil, classify("scan violation", err)
		}
		rec.IdentityID = model.IdentityID(personID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query violations", err)
	}

	return records, nil
}

// Count returns the number of audit records matching the filter.
func (r *AuditRepository) Count(ctx context.Context, filter *dto.ViolationFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if err := r.schema.ensure(ctx, r.db.Conn()); err != nil {
		return 0, err
	}

	where, args := whereClause(filter)
	var count int
	if err := r.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM tracking"+where, args...).Scan(&count); err != nil {
		return 0, classify("count violations", err)
	}
	return count, nil
}

func whereClause(filter *dto.ViolationFilter) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Source != "" {
		query += " AND video_name = ?"
		args = append(args, filter.Source)
	}

	if filter.IdentityID != nil {
		query += " AND person_id = ?"
		args = append(args, *filter.IdentityID)
	}

	if !filter.After.IsZero() {
		query += " AND enter_time >= ?"
		args = append(args, filter.After.UTC())
	}

	if !filter.Before.IsZero() {
		query += " AND enter_time <= ?"
		args = append(args, filter.Before.UTC())
	}

	return query, args
}
