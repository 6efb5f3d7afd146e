package connect

import (
	"time"

	"github.com/google/uuid"

	"github.com/finsight/backend/internal/domain/shared"
)

// accessTokenSafetyMargin is subtracted from the stored expiry when deciding
// whether an access token is still usable, so a token is never handed out
// moments before the provider rejects it.
const accessTokenSafetyMargin = 60 * time.Second

// Connection represents an authorized link to one Xero organisation.
// At most one active connection exists per tenant; revoked connections are
// deactivated rather than deleted so the audit trail survives.
type Connection struct {
	shared.BaseEntity
	// TenantID is the Xero organisation identifier
	TenantID uuid.UUID
	// TenantName is the organisation display name reported by Xero
	TenantName string
	// AccessToken is the current OAuth2 access token
	AccessToken string
	// RefreshToken is the current OAuth2 refresh token
	RefreshToken string
	// ExpiresAt is the access token expiry instant
	ExpiresAt time.Time
	// Scopes is the space-separated scope set granted to this connection
	Scopes string
	// IsActive is false once the connection has been revoked or its refresh
	// token was rejected by Xero
	IsActive bool
	// CreatedBy is the application user who authorized the connection
	CreatedBy uuid.UUID
}

// NewConnection creates an active connection from a completed token exchange
func NewConnection(tenantID uuid.UUID, tenantName string, createdBy uuid.UUID, tokens TokenSet, scopes string) *Connection {
	return &Connection{
		BaseEntity:   shared.NewBaseEntity(),
		TenantID:     tenantID,
		TenantName:   tenantName,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		Scopes:       scopes,
		IsActive:     true,
		CreatedBy:    createdBy,
	}
}

// TokenSet holds one rotation of OAuth2 credentials
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// NeedsRefresh reports whether the access token is expired or inside the
// safety margin and must be refreshed before use
func (c *Connection) NeedsRefresh(now time.Time) bool {
	return !now.Add(accessTokenSafetyMargin).Before(c.ExpiresAt)
}

// Rotate replaces both tokens and the expiry after a successful refresh or
// re-authorization
func (c *Connection) Rotate(tokens TokenSet) {
	c.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		c.RefreshToken = tokens.RefreshToken
	}
	c.ExpiresAt = tokens.ExpiresAt
	c.Touch()
}

// Reactivate restores a previously revoked connection with fresh credentials
func (c *Connection) Reactivate(createdBy uuid.UUID, tokens TokenSet, scopes string) {
	c.Rotate(tokens)
	c.Scopes = scopes
	c.CreatedBy = createdBy
	c.IsActive = true
}

// Deactivate soft-deletes the connection
func (c *Connection) Deactivate() {
	c.IsActive = false
	c.Touch()
}

// OwnedBy reports whether the given user created this connection
func (c *Connection) OwnedBy(userID uuid.UUID) bool {
	return c.CreatedBy == userID
}
