package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/finsight/backend/internal/domain/connect"
)

// ConnectionModel is the persistence model for an authorized Xero link
type ConnectionModel struct {
	BaseModel
	TenantID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	TenantName     string    `gorm:"type:varchar(255);not null"`
	AccessToken    string    `gorm:"type:text;not null"`
	RefreshToken   string    `gorm:"type:text;not null"`
	TokenExpiresAt time.Time `gorm:"not null"`
	Scopes         string    `gorm:"type:text;not null"`
	IsActive       bool      `gorm:"not null;default:true;index"`
	CreatedBy      uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName specifies the table name for ConnectionModel
func (ConnectionModel) TableName() string {
	return "xero_connections"
}

// ToDomain converts the model to a domain connection
func (m *ConnectionModel) ToDomain() *connect.Connection {
	return &connect.Connection{
		BaseEntity:   m.BaseModel.ToDomain(),
		TenantID:     m.TenantID,
		TenantName:   m.TenantName,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		ExpiresAt:    m.TokenExpiresAt,
		Scopes:       m.Scopes,
		IsActive:     m.IsActive,
		CreatedBy:    m.CreatedBy,
	}
}

// FromDomain populates the model from a domain connection
func (m *ConnectionModel) FromDomain(c *connect.Connection) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.TenantName = c.TenantName
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.TokenExpiresAt = c.ExpiresAt
	m.Scopes = c.Scopes
	m.IsActive = c.IsActive
	m.CreatedBy = c.CreatedBy
}
