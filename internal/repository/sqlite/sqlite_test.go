package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dwellwatch/internal/dto"
	"dwellwatch/internal/model"
	"dwellwatch/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func event(id int64, source string, start time.Time, dwell time.Duration) model.ViolationEvent {
	return model.ViolationEvent{
		IdentityID:   model.IdentityID(id),
		SessionStart: start,
		SessionEnd:   start.Add(dwell),
		Source:       source,
		EvidenceRef:  fmt.Sprintf("ref-%d", id),
	}
}

func TestDatabase_Connection(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestAuditRepository_AppendAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	start := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	if err := repo.Append(ctx, event(7, "lobby.mp4", start, 31*time.Second)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, event(9, "lobby.mp4", start.Add(time.Minute), 45*time.Second)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := repo.List(ctx, &dto.ViolationFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	// Newest first
	got := records[1]
	if got.IdentityID != 7 || got.Source != "lobby.mp4" || got.EvidenceRef != "ref-7" {
		t.Errorf("Unexpected record: %+v", got)
	}
	if !got.SessionStart.Equal(start) {
		t.Errorf("SessionStart = %v, expected %v", got.SessionStart, start)
	}
	if got.SessionEnd.Sub(got.SessionStart) != 31*time.Second {
		t.Errorf("Dwell = %v, expected 31s", got.SessionEnd.Sub(got.SessionStart))
	}
	if got.ID == 0 || got.CreatedAt.IsZero() {
		t.Errorf("Expected generated id and created_at, got %+v", got)
	}
}

func TestAuditRepository_Filters(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		source := "a.mp4"
		if i%2 == 1 {
			source = "b.mp4"
		}
		if err := repo.Append(ctx, event(int64(i), source, start.Add(time.Duration(i)*time.Hour), 40*time.Second)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	id := int64(3)
	tests := []struct {
		name     string
		filter   *dto.ViolationFilter
		expected int
	}{
		{"nil filter", nil, 5},
		{"by source", &dto.ViolationFilter{Source: "a.mp4"}, 3},
		{"by identity", &dto.ViolationFilter{IdentityID: &id}, 1},
		{"after", &dto.ViolationFilter{After: start.Add(2 * time.Hour)}, 3},
		{"before", &dto.ViolationFilter{Before: start.Add(time.Hour)}, 2},
		{"window", &dto.ViolationFilter{After: start.Add(time.Hour), Before: start.Add(3 * time.Hour)}, 3},
		{"unknown source", &dto.ViolationFilter{Source: "c.mp4"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := repo.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != tt.expected {
				t.Errorf("Count = %d, expected %d", count, tt.expected)
			}

			records, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(records) != tt.expected {
				t.Errorf("List returned %d records, expected %d", len(records), tt.expected)
			}
		})
	}
}

func TestAuditRepository_Pagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if err := repo.Append(ctx, event(int64(i), "a.mp4", start, 31*time.Second)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	page, err := repo.List(ctx, &dto.ViolationFilter{Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(page))
	}
	if page[0].IdentityID != 3 {
		t.Errorf("Expected identity 3 at page start, got %d", page[0].IdentityID)
	}

	last, err := repo.List(ctx, &dto.ViolationFilter{Limit: 3, Offset: 6})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(last) != 1 {
		t.Errorf("Expected 1 record on last page, got %d", len(last))
	}
}

func TestAuditRepository_RejectsInvalidEvents(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event model.ViolationEvent
	}{
		{"negative identity", event(-1, "a.mp4", start, time.Minute)},
		{"empty source", event(1, "", start, time.Minute)},
		{"end before start", event(1, "a.mp4", start, -time.Second)},
		{"missing ref", model.ViolationEvent{IdentityID: 1, Source: "a.mp4", SessionStart: start, SessionEnd: start}},
		{"zero times", model.ViolationEvent{IdentityID: 1, Source: "a.mp4", EvidenceRef: "r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Append(ctx, tt.event)
			if !errors.Is(err, repository.ErrConstraintViolation) {
				t.Errorf("Expected constraint violation, got %v", err)
			}
		})
	}

	count, err := repo.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected nothing stored, got %d", count)
	}
}

func TestAuditRepository_ConcurrentAppend(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := repo.Append(ctx, event(int64(idx), "cam1", start, 31*time.Second)); err != nil {
				t.Errorf("Concurrent append %d failed: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	count, _ := repo.Count(ctx, nil)
	if count != 10 {
		t.Errorf("Expected 10 records, got %d", count)
	}
}

func TestAuditRepository_ClosedDatabase(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	repo := NewAuditRepository(db)
	db.Close()

	err = repo.Append(context.Background(), event(1, "a.mp4", time.Now(), time.Minute))
	if !errors.Is(err, repository.ErrStorageUnavailable) {
		t.Errorf("Expected storage unavailable, got %v", err)
	}
}

func TestEvidenceRepository_InsertLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewEvidenceRepository(db)
	ctx := context.Background()

	ev := &model.Evidence{
		Ref:            "abc",
		Source:         "lobby.mp4",
		IdentityID:     4,
		FrameIndex:     901,
		FrameTimestamp: 30033 * time.Millisecond,
		Detections: []model.Detection{
			{IdentityID: 4, Box: model.BoundingBox{X1: 1, Y1: 2, X2: 30, Y2: 40}, Confidence: 0.9},
		},
		ContentType: "image/jpeg",
		Size:        2048,
	}
	if err := repo.Insert(ctx, ev, "/evidence/lobby.mp4/4_abc.jpg"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, path, err := repo.Lookup(ctx, "abc")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if path != "/evidence/lobby.mp4/4_abc.jpg" {
		t.Errorf("Path = %q", path)
	}
	if got.IdentityID != 4 || got.FrameIndex != 901 || got.FrameTimestamp != 30033*time.Millisecond {
		t.Errorf("Unexpected evidence: %+v", got)
	}
	if len(got.Detections) != 1 || got.Detections[0].Box.X2 != 30 {
		t.Errorf("Detections not restored: %+v", got.Detections)
	}

	if err := repo.Insert(ctx, ev, "/other"); !errors.Is(err, repository.ErrConstraintViolation) {
		t.Errorf("Expected constraint violation on duplicate ref, got %v", err)
	}
}

func TestEvidenceRepository_LookupMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewEvidenceRepository(db)

	_, _, err := repo.Lookup(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}
