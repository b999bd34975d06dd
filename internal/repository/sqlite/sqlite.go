package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"dwellwatch/internal/repository"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New opens (creating if needed) the SQLite database at dbPath. Tables are
// provisioned lazily by the repositories on first use.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, classify("open database", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}

// schema provisions a set of tables once. A failed attempt is retried on the
// next call.
type schema struct {
	mu    sync.Mutex
	ready bool
	ddl   string
}

func (s *schema) ensure(ctx context.Context, conn *sql.DB) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if _, err := conn.ExecContext(ctx, s.ddl); err != nil {
		return classify("provision schema", err)
	}
	s.ready = true
	return nil
}

// classify maps driver errors onto the storage taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return repository.Wrap(op, repository.ErrConstraintViolation, err)
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrPerm:
			return repository.Wrap(op, repository.ErrStorageUnavailable, err)
		}
		return repository.Wrap(op, repository.ErrStorageIO, err)
	}

	if errors.Is(err, sql.ErrConnDone) || repository.IsContextError(err) ||
		strings.Contains(err.Error(), "database is closed") {
		return repository.Wrap(op, repository.ErrStorageUnavailable, err)
	}
	return repository.Wrap(op, repository.ErrStorageIO, err)
}
