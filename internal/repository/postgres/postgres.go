package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/lib/pq"

	"dwellwatch/internal/dto"
	"dwellwatch/internal/model"
	"dwellwatch/internal/repository"
)

const auditSchema = `
	CREATE TABLE IF NOT EXISTS tracking (
		id SERIAL PRIMARY KEY,
		person_id BIGINT NOT NULL CHECK (person_id >= 0),
		enter_time TIMESTAMPTZ NOT NULL,
		exit_time TIMESTAMPTZ NOT NULL,
		video_name TEXT NOT NULL CHECK (length(video_name) > 0),
		evidence_ref TEXT NOT NULL CHECK (length(evidence_ref) > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (exit_time >= enter_time)
	);

	CREATE INDEX IF NOT EXISTS idx_tracking_video_name ON tracking(video_name);
	CREATE INDEX IF NOT EXISTS idx_tracking_person_id ON tracking(person_id);
`

// Open connects to PostgreSQL using a lib/pq DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	return db, nil
}

// AuditRepository is the PostgreSQL audit log.
type AuditRepository struct {
	db *sql.DB

	mu    sync.Mutex
	ready bool
}

// NewAuditRepository constructs a PostgreSQL-backed audit log. The table is
// created on first use.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) ensureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return Classify("provision schema", err)
	}
	r.ready = true
	return nil
}

// Append writes one violation event.
func (r *AuditRepository) Append(ctx context.Context, event model.ViolationEvent) error {
	if err := repository.ValidateEvent(event); err != nil {
		return err
	}
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}

	query := `
		INSERT INTO tracking (person_id, enter_time, exit_time, video_name, evidence_ref)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, int64(event.IdentityID), event.SessionStart, event.SessionEnd, event.Source, event.EvidenceRef)
	if err != nil {
		return Classify("append violation", err)
	}
	return nil
}

// List returns audit records matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter *dto.ViolationFilter) ([]model.AuditRecord, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}

	where, args := whereClause(filter)
	query := `
		SELECT id, person_id, enter_time, exit_time, video_name, evidence_ref, created_at
		FROM tracking
	` + where + " ORDER BY id DESC"

	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += " OFFSET $" + strconv.Itoa(len(args))
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Classify("query violations", err)
	}
	defer rows.Close()

	var records []model.AuditRecord
	for rows.Next() {
		var rec model.AuditRecord
		var personID int64
		if err := rows.Scan(&rec.ID, &personID, &rec.SessionStart, &rec.SessionEnd, &rec.Source, &rec.EvidenceRef, &rec.CreatedAt); err != nil {
			return nil, Classify("scan violation", err)
		}
		rec.IdentityID = model.IdentityID(personID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify("query violations", err)
	}
	return records, nil
}

// Count returns the number of audit records matching the filter.
func (r *AuditRepository) Count(ctx context.Context, filter *dto.ViolationFilter) (int, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return 0, err
	}

	where, args := whereClause(filter)
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracking"+where, args...).Scan(&count); err != nil {
		return 0, Classify("count violations", err)
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
		args = append(args, filter.Source)
		query += " AND video_name = $" + strconv.Itoa(len(args))
	}
	if filter.IdentityID != nil {
		args = append(args, *filter.IdentityID)
		query += " AND person_id = $" + strconv.Itoa(len(args))
	}
	if !filter.After.IsZero() {
		args = append(args, filter.After)
		query += " AND enter_time >= $" + strconv.Itoa(len(args))
	}
	if !filter.Before.IsZero() {
		args = append(args, filter.Before)
		query += " AND enter_time <= $" + strconv.Itoa(len(args))
	}
	return query, args
}

// Classify maps lib/pq and connection errors onto the storage taxonomy.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23": // integrity_constraint_violation
			return repository.Wrap(op, repository.ErrConstraintViolation, err)
		case "08", "53", "57": // connection, insufficient resources, operator intervention
			return repository.Wrap(op, repository.ErrStorageUnavailable, err)
		}
		return repository.Wrap(op, repository.ErrStorageIO, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &netErr) || repository.IsContextError(err) {
		return repository.Wrap(op, repository.ErrStorageUnavailable, err)
	}
	return repository.Wrap(op, repository.ErrStorageIO, err)
}
