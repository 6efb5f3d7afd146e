package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/finsight/backend/internal/domain/ledger"
)

// CheckpointRepository persists per-(tenant, entity type) sync progress.
// Checkpoints are the sole source of truth for watermarks; they are never
// re-derived from the synchronized rows.
type CheckpointRepository interface {
	// Find returns the checkpoint for a tenant and entity type, or
	// shared.ErrNotFound when none exists yet
	Find(ctx context.Context, tenantID uuid.UUID, entityType ledger.EntityType) (*Checkpoint, error)

	// FindAllForTenant returns every checkpoint for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Checkpoint, error)

	// Save upserts a checkpoint as a single row. The stored watermark is
	// never moved backwards, whatever the caller passes.
	Save(ctx context.Context, checkpoint *Checkpoint) error
}

// SessionRepository persists completed sync sessions. Sessions are
// write-once; the sync path never reads them back.
type SessionRepository interface {
	// Save appends a finalized session
	Save(ctx context.Context, session *Session) error

	// FindRecent returns the most recent sessions for a tenant, newest first
	FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]Session, error)
}
