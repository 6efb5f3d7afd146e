package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finsight/backend/internal/domain/ledger"
	"github.com/finsight/backend/internal/domain/shared"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
	"github.com/finsight/backend/internal/infrastructure/persistence/models"
)

// GormCheckpointRepository implements sync.CheckpointRepository using GORM
type GormCheckpointRepository struct {
	db *gorm.DB
}

var _ syncdomain.CheckpointRepository = (*GormCheckpointRepository)(nil)

// NewGormCheckpointRepository creates a new GormCheckpointRepository
func NewGormCheckpointRepository(db *gorm.DB) *GormCheckpointRepository {
	return &GormCheckpointRepository{db: db}
}

// Find returns the checkpoint for a tenant and entity type
func (r *GormCheckpointRepository) Find(ctx context.Context, tenantID uuid.UUID, entityType ledger.EntityType) (*syncdomain.Checkpoint, error) {
	var model models.SyncCheckpointModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ?", tenantID, string(entityType)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant returns every checkpoint for a tenant
func (r *GormCheckpointRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]syncdomain.Checkpoint, error) {
	var checkpointModels []models.SyncCheckpointModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("entity_type ASC").
		Find(&checkpointModels).Error; err != nil {
		return nil, err
	}
	checkpoints := make([]syncdomain.Checkpoint, len(checkpointModels))
	for i, model := range checkpointModels {
		checkpoints[i] = *model.ToDomain()
	}
	return checkpoints, nil
}

// Save upserts a checkpoint. The stored watermark is never moved backwards:
// when a row already exists its watermark wins if it is later than the one
// being written.
func (r *GormCheckpointRepository) Save(ctx context.Context, checkpoint *syncdomain.Checkpoint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.SyncCheckpointModel
		err := tx.Where("tenant_id = ? AND entity_type = ?",
			checkpoint.TenantID, string(checkpoint.EntityType)).
			First(&existing).Error

		var model models.SyncCheckpointModel
		model.FromDomain(checkpoint)

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&model).Error
		case err != nil:
			return err
		default:
			// Keep the row identity and guard the watermark
			model.ID = existing.ID
			model.CreatedAt = existing.CreatedAt
			if existing.LastUpdatedUTC.After(model.LastUpdatedUTC) {
				model.LastUpdatedUTC = existing.LastUpdatedUTC
			}
			return tx.Model(&models.SyncCheckpointModel{}).
				Where("id = ?", existing.ID).
				Select("*").Omit("id", "created_at").
				Updates(&model).Error
		}
	})
}
