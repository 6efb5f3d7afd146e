package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/finsight/backend/internal/domain/ledger"
	"github.com/finsight/backend/internal/domain/shared"
)

// CheckpointStatus represents the state of one entity type's sync progress
type CheckpointStatus string

const (
	CheckpointStatusIdle      CheckpointStatus = "IDLE"
	CheckpointStatusRunning   CheckpointStatus = "RUNNING"
	CheckpointStatusCompleted CheckpointStatus = "COMPLETED"
	CheckpointStatusFailed    CheckpointStatus = "FAILED"
)

// Checkpoint is the persisted progress record for one (tenant, entity type)
// pair. The watermark only ever moves forward, and only after the page of
// records it covers has been durably upserted.
type Checkpoint struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	EntityType ledger.EntityType
	// LastUpdatedUTC is the watermark: the greatest record update instant
	// that has been durably processed
	LastUpdatedUTC time.Time
	// RecordsProcessed is the lifetime count of records upserted for this
	// entity type
	RecordsProcessed int64
	// HasMoreRecords is true when the last fetched page was full-sized and a
	// further page remained at the time the run ended
	HasMoreRecords bool
	Status         CheckpointStatus
	LastError      string
}

// NewCheckpoint creates an idle checkpoint with a zero watermark
func NewCheckpoint(tenantID uuid.UUID, entityType ledger.EntityType) *Checkpoint {
	return &Checkpoint{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		EntityType: entityType,
		Status:     CheckpointStatusIdle,
	}
}

// Begin marks the checkpoint as running for the current session
func (c *Checkpoint) Begin() {
	c.Status = CheckpointStatusRunning
	c.LastError = ""
	c.Touch()
}

// Advance moves the watermark forward and accumulates the processed count.
// A watermark earlier than the current one is ignored so the checkpoint can
// never regress.
func (c *Checkpoint) Advance(watermark time.Time, records int, hasMore bool) {
	if watermark.After(c.LastUpdatedUTC) {
		c.LastUpdatedUTC = watermark
	}
	c.RecordsProcessed += int64(records)
	c.HasMoreRecords = hasMore
	c.Touch()
}

// Complete marks the entity type's run as successful
func (c *Checkpoint) Complete() {
	c.Status = CheckpointStatusCompleted
	c.LastError = ""
	c.HasMoreRecords = false
	c.Touch()
}

// Fail records the entity-level error without touching the watermark
func (c *Checkpoint) Fail(msg string) {
	c.Status = CheckpointStatusFailed
	c.LastError = msg
	c.Touch()
}
