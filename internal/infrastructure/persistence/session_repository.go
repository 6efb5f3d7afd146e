package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	syncdomain "github.com/finsight/backend/internal/domain/sync"
	"github.com/finsight/backend/internal/infrastructure/persistence/models"
)

// GormSessionRepository implements sync.SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

var _ syncdomain.SessionRepository = (*GormSessionRepository)(nil)

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Save appends a finalized session
func (r *GormSessionRepository) Save(ctx context.Context, session *syncdomain.Session) error {
	var model models.SyncSessionModel
	if err := model.FromDomain(session); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindRecent returns the most recent sessions for a tenant, newest first
func (r *GormSessionRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]syncdomain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	var sessionModels []models.SyncSessionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Limit(limit).
		Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	sessions := make([]syncdomain.Session, 0, len(sessionModels))
	for i := range sessionModels {
		s, err := sessionModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}
