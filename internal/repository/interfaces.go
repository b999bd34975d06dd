package repository

import (
	"context"

	"dwellwatch/internal/dto"
	"dwellwatch/internal/model"
)

// AuditRepository is the append-only structured log of violation events.
// Implementations must accept concurrent callers and provision their schema on
// first use.
type AuditRepository interface {
	// Create operations
	Append(ctx context.Context, event model.ViolationEvent) error

	// Read operations
	List(ctx context.Context, filter *dto.ViolationFilter) ([]model.AuditRecord, error)
	Count(ctx context.Context, filter *dto.ViolationFilter) (int, error)
}

// EvidenceStore keeps the unstructured snapshot for a violation and resolves
// it again from the reference it returned.
type EvidenceStore interface {
	Put(ctx context.Context, in model.EvidenceInput) (string, error)
	Get(ctx context.Context, ref string) (*model.Evidence, error)
}

// EvidenceIndex records where evidence files live. It backs the filesystem
// evidence store.
type EvidenceIndex interface {
	Insert(ctx context.Context, ev *model.Evidence, path string) error
	Lookup(ctx context.Context, ref string) (*model.Evidence, string, error)
}
