package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/backend/internal/domain/ledger"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
)

// SyncCheckpointModel is the persistence model for per-entity sync progress.
// One row per (tenant, entity type).
type SyncCheckpointModel struct {
	BaseModel
	TenantID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_checkpoint_tenant_entity"`
	EntityType       string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_checkpoint_tenant_entity"`
	LastUpdatedUTC   time.Time `gorm:"not null"`
	RecordsProcessed int64     `gorm:"not null;default:0"`
	HasMoreRecords   bool      `gorm:"not null;default:false"`
	Status           string    `gorm:"type:varchar(16);not null"`
	LastError        string    `gorm:"type:text"`
}

// TableName specifies the table name for SyncCheckpointModel
func (SyncCheckpointModel) TableName() string {
	return "sync_checkpoints"
}

// ToDomain converts the model to a domain checkpoint
func (m *SyncCheckpointModel) ToDomain() *syncdomain.Checkpoint {
	return &syncdomain.Checkpoint{
		BaseEntity:       m.BaseModel.ToDomain(),
		TenantID:         m.TenantID,
		EntityType:       ledger.EntityType(m.EntityType),
		LastUpdatedUTC:   m.LastUpdatedUTC,
		RecordsProcessed: m.RecordsProcessed,
		HasMoreRecords:   m.HasMoreRecords,
		Status:           syncdomain.CheckpointStatus(m.Status),
		LastError:        m.LastError,
	}
}

// FromDomain populates the model from a domain checkpoint
func (m *SyncCheckpointModel) FromDomain(c *syncdomain.Checkpoint) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.EntityType = string(c.EntityType)
	m.LastUpdatedUTC = c.LastUpdatedUTC
	m.RecordsProcessed = c.RecordsProcessed
	m.HasMoreRecords = c.HasMoreRecords
	m.Status = string(c.Status)
	m.LastError = c.LastError
}

// SyncSessionModel is the append-only persistence model for completed sync
// sessions. Per-entity results are stored as a JSON document.
type SyncSessionModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantName   string    `gorm:"type:varchar(255);not null"`
	Trigger      string    `gorm:"type:varchar(16);not null"`
	StartedAt    time.Time `gorm:"not null;index"`
	CompletedAt  time.Time `gorm:"not null"`
	Results      []byte    `gorm:"type:jsonb"`
	TotalRecords int       `gorm:"not null;default:0"`
	Success      bool      `gorm:"not null"`
	Errors       []byte    `gorm:"type:jsonb"`
}

// TableName specifies the table name for SyncSessionModel
func (SyncSessionModel) TableName() string {
	return "sync_sessions"
}

// ToDomain converts the model to a domain session
func (m *SyncSessionModel) ToDomain() (*syncdomain.Session, error) {
	s := &syncdomain.Session{
		ID:           m.ID,
		TenantID:     m.TenantID,
		TenantName:   m.TenantName,
		Trigger:      syncdomain.TriggerKind(m.Trigger),
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
		TotalRecords: m.TotalRecords,
		Success:      m.Success,
	}
	if len(m.Results) > 0 {
		if err := json.Unmarshal(m.Results, &s.Results); err != nil {
			return nil, err
		}
	}
	if len(m.Errors) > 0 {
		if err := json.Unmarshal(m.Errors, &s.Errors); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FromDomain populates the model from a domain session
func (m *SyncSessionModel) FromDomain(s *syncdomain.Session) error {
	results, err := json.Marshal(s.Results)
	if err != nil {
		return err
	}
	errs, err := json.Marshal(s.Errors)
	if err != nil {
		return err
	}
	m.ID = s.ID
	m.TenantID = s.TenantID
	m.TenantName = s.TenantName
	m.Trigger = string(s.Trigger)
	m.StartedAt = s.StartedAt
	m.CompletedAt = s.CompletedAt
	m.Results = results
	m.TotalRecords = s.TotalRecords
	m.Success = s.Success
	m.Errors = errs
	return nil
}
