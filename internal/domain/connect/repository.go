package connect

import (
	"context"

	"github.com/google/uuid"
)

// ConnectionRepository defines the interface for persisting Xero connections
type ConnectionRepository interface {
	// Save creates or updates a connection
	Save(ctx context.Context, conn *Connection) error

	// FindByTenant finds the connection for a Xero tenant, active or not
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*Connection, error)

	// FindActiveByTenant finds the active connection for a Xero tenant
	FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) (*Connection, error)

	// FindAllActive returns all connections with the active flag set,
	// used by the scheduler to know which tenants to sync
	FindAllActive(ctx context.Context) ([]Connection, error)
}

// TransactionStateStore persists pending OAuth authorization attempts.
// Implementations may be backed by Redis, memory or the database; the token
// manager never assumes a transport (cookies are a handler concern).
type TransactionStateStore interface {
	// Save stores a pending transaction until its expiry
	Save(ctx context.Context, state *TransactionState) error

	// Consume atomically retrieves and invalidates a pending transaction.
	// It returns ErrInvalidOAuthState when the token is unknown, already
	// consumed or expired.
	Consume(ctx context.Context, state string) (*TransactionState, error)
}
