package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/backend/internal/domain/ledger"
	"github.com/finsight/backend/internal/domain/shared"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
)

func TestCheckpointRepositorySaveAndFind(t *testing.T) {
	repo := NewGormCheckpointRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()

	cp := syncdomain.NewCheckpoint(tenantID, ledger.EntityInvoices)
	cp.Begin()
	cp.Advance(time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC), 42, false)
	cp.Complete()
	require.NoError(t, repo.Save(ctx, cp))

	found, err := repo.Find(ctx, tenantID, ledger.EntityInvoices)
	require.NoError(t, err)
	assert.Equal(t, int64(42), found.RecordsProcessed)
	assert.Equal(t, syncdomain.CheckpointStatusCompleted, found.Status)
	assert.True(t, found.LastUpdatedUTC.Equal(time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)))
}

func TestCheckpointRepositoryNotFound(t *testing.T) {
	repo := NewGormCheckpointRepository(newTestDB(t))

	_, err := repo.Find(context.Background(), uuid.New(), ledger.EntityContacts)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCheckpointRepositoryWatermarkNeverRegresses(t *testing.T) {
	repo := NewGormCheckpointRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	later := time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)

	cp := syncdomain.NewCheckpoint(tenantID, ledger.EntityPayments)
	cp.Advance(later, 10, false)
	require.NoError(t, repo.Save(ctx, cp))

	// A stale writer presenting an earlier watermark must not move it back
	stale := syncdomain.NewCheckpoint(tenantID, ledger.EntityPayments)
	stale.Advance(earlier, 5, false)
	require.NoError(t, repo.Save(ctx, stale))

	found, err := repo.Find(ctx, tenantID, ledger.EntityPayments)
	require.NoError(t, err)
	assert.True(t, found.LastUpdatedUTC.Equal(later))
}

func TestCheckpointRepositoryUpsertsSingleRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCheckpointRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	cp := syncdomain.NewCheckpoint(tenantID, ledger.EntityAccounts)
	require.NoError(t, repo.Save(ctx, cp))
	cp.Advance(time.Now().UTC(), 7, true)
	require.NoError(t, repo.Save(ctx, cp))

	all, err := repo.FindAllForTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(7), all[0].RecordsProcessed)
	assert.True(t, all[0].HasMoreRecords)
}

func TestCheckpointRepositoryFindAllForTenant(t *testing.T) {
	repo := NewGormCheckpointRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()

	for _, et := range []ledger.EntityType{ledger.EntityAccounts, ledger.EntityContacts, ledger.EntityInvoices} {
		require.NoError(t, repo.Save(ctx, syncdomain.NewCheckpoint(tenantID, et)))
	}
	// Another tenant's checkpoints must not leak in
	require.NoError(t, repo.Save(ctx, syncdomain.NewCheckpoint(uuid.New(), ledger.EntityAccounts)))

	all, err := repo.FindAllForTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
