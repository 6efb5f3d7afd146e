package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/backend/internal/domain/ledger"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
)

func TestSessionRepositorySaveAndFindRecent(t *testing.T) {
	repo := NewGormSessionRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()

	first := syncdomain.NewSession(tenantID, "Demo Company", syncdomain.TriggerManual)
	first.StartedAt = time.Now().Add(-2 * time.Hour)
	first.Record(syncdomain.EntityResult{EntityType: ledger.EntityInvoices, RecordsProcessed: 10})
	first.Finalize()
	require.NoError(t, repo.Save(ctx, first))

	second := syncdomain.NewSession(tenantID, "Demo Company", syncdomain.TriggerScheduled)
	second.Record(syncdomain.EntityResult{EntityType: ledger.EntityContacts, RecordsProcessed: 3,
		Error: "fetch failed"})
	second.Finalize()
	require.NoError(t, repo.Save(ctx, second))

	sessions, err := repo.FindRecent(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// Newest first
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.False(t, sessions[0].Success)
	require.Len(t, sessions[0].Results, 1)
	assert.Equal(t, ledger.EntityContacts, sessions[0].Results[0].EntityType)
	assert.Contains(t, sessions[0].Errors[0], "fetch failed")

	assert.Equal(t, first.ID, sessions[1].ID)
	assert.True(t, sessions[1].Success)
	assert.Equal(t, 10, sessions[1].TotalRecords)
}

func TestSessionRepositoryLimit(t *testing.T) {
	repo := NewGormSessionRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()

	for i := 0; i < 5; i++ {
		s := syncdomain.NewSession(tenantID, "Org", syncdomain.TriggerScheduled)
		s.StartedAt = time.Now().Add(time.Duration(-i) * time.Minute)
		s.Finalize()
		require.NoError(t, repo.Save(ctx, s))
	}

	sessions, err := repo.FindRecent(ctx, tenantID, 3)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}
