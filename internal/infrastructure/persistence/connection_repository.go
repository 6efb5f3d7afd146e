package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finsight/backend/internal/domain/connect"
	"github.com/finsight/backend/internal/domain/shared"
	"github.com/finsight/backend/internal/infrastructure/persistence/models"
)

// GormConnectionRepository implements connect.ConnectionRepository using GORM
type GormConnectionRepository struct {
	db *gorm.DB
}

var _ connect.ConnectionRepository = (*GormConnectionRepository)(nil)

// NewGormConnectionRepository creates a new GormConnectionRepository
func NewGormConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

// Save creates or updates a connection
func (r *GormConnectionRepository) Save(ctx context.Context, conn *connect.Connection) error {
	var model models.ConnectionModel
	model.FromDomain(conn)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByTenant finds the connection for a Xero tenant, active or not
func (r *GormConnectionRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*connect.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByTenant finds the active connection for a Xero tenant
func (r *GormConnectionRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) (*connect.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllActive returns all connections with the active flag set
func (r *GormConnectionRepository) FindAllActive(ctx context.Context) ([]connect.Connection, error) {
	var connectionModels []models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("tenant_name ASC").
		Find(&connectionModels).Error; err != nil {
		return nil, err
	}
	connections := make([]connect.Connection, len(connectionModels))
	for i, model := range connectionModels {
		connections[i] = *model.ToDomain()
	}
	return connections, nil
}
