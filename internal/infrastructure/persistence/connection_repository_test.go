package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/backend/internal/domain/connect"
	"github.com/finsight/backend/internal/domain/shared"
)

func newTestConnection(tenantName string) *connect.Connection {
	return connect.NewConnection(uuid.New(), tenantName, uuid.New(), connect.TokenSet{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}, "openid offline_access")
}

func TestConnectionRepositorySaveAndFind(t *testing.T) {
	repo := NewGormConnectionRepository(newTestDB(t))
	ctx := context.Background()

	conn := newTestConnection("Demo Company")
	require.NoError(t, repo.Save(ctx, conn))

	found, err := repo.FindByTenant(ctx, conn.TenantID)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, found.ID)
	assert.Equal(t, "Demo Company", found.TenantName)
	assert.Equal(t, "rt", found.RefreshToken)
	assert.True(t, found.IsActive)
}

func TestConnectionRepositoryNotFound(t *testing.T) {
	repo := NewGormConnectionRepository(newTestDB(t))

	_, err := repo.FindByTenant(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestConnectionRepositoryRotatePersists(t *testing.T) {
	repo := NewGormConnectionRepository(newTestDB(t))
	ctx := context.Background()

	conn := newTestConnection("Demo Company")
	require.NoError(t, repo.Save(ctx, conn))

	conn.Rotate(connect.TokenSet{
		AccessToken:  "at2",
		RefreshToken: "rt2",
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	})
	require.NoError(t, repo.Save(ctx, conn))

	found, err := repo.FindActiveByTenant(ctx, conn.TenantID)
	require.NoError(t, err)
	assert.Equal(t, "at2", found.AccessToken)
	assert.Equal(t, "rt2", found.RefreshToken)
}

func TestConnectionRepositoryActiveFilter(t *testing.T) {
	repo := NewGormConnectionRepository(newTestDB(t))
	ctx := context.Background()

	active := newTestConnection("Active Org")
	revoked := newTestConnection("Revoked Org")
	revoked.Deactivate()
	require.NoError(t, repo.Save(ctx, active))
	require.NoError(t, repo.Save(ctx, revoked))

	_, err := repo.FindActiveByTenant(ctx, revoked.TenantID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// Deactivated connections remain findable without the active filter
	found, err := repo.FindByTenant(ctx, revoked.TenantID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	all, err := repo.FindAllActive(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Active Org", all[0].TenantName)
}
