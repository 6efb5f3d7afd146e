package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/backend/internal/domain/connect"
)

func TestMemoryStateStoreConsumeOnce(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	ts, err := connect.NewTransactionState(uuid.New(), connect.DefaultStateTTL)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, ts))

	got, err := store.Consume(ctx, ts.State)
	require.NoError(t, err)
	assert.Equal(t, ts.UserID, got.UserID)

	// Second consume of the same token must be rejected
	_, err = store.Consume(ctx, ts.State)
	assert.ErrorIs(t, err, connect.ErrInvalidOAuthState)
}

func TestMemoryStateStoreUnknownToken(t *testing.T) {
	store := NewMemoryStateStore()

	_, err := store.Consume(context.Background(), "never-issued")
	assert.ErrorIs(t, err, connect.ErrInvalidOAuthState)
}

func TestMemoryStateStoreExpiredToken(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	ts, err := connect.NewTransactionState(uuid.New(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, ts))

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = store.Consume(ctx, ts.State)
	assert.ErrorIs(t, err, connect.ErrInvalidOAuthState)
}
