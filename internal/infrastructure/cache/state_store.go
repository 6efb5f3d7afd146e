package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finsight/backend/internal/domain/connect"
)

const stateKeyPrefix = "oauth:state:"

// ---------------------------------------------------------------------------
// Redis-backed store
// ---------------------------------------------------------------------------

// RedisStateStore keeps pending OAuth transactions in Redis so the callback
// can land on any replica. Consume uses GETDEL for single-use atomicity.
type RedisStateStore struct {
	client *redis.Client
}

var _ connect.TransactionStateStore = (*RedisStateStore)(nil)

// NewRedisStateStore creates a Redis-backed transaction state store
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Save(ctx context.Context, state *connect.TransactionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding transaction state: %w", err)
	}
	ttl := time.Until(state.ExpiresAt)
	if ttl <= 0 {
		return connect.ErrInvalidOAuthState
	}
	return s.client.Set(ctx, stateKeyPrefix+state.State, payload, ttl).Err()
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (*connect.TransactionState, error) {
	payload, err := s.client.GetDel(ctx, stateKeyPrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, connect.ErrInvalidOAuthState
		}
		return nil, fmt.Errorf("consuming transaction state: %w", err)
	}

	var ts connect.TransactionState
	if err := json.Unmarshal(payload, &ts); err != nil {
		return nil, fmt.Errorf("decoding transaction state: %w", err)
	}
	if ts.Expired(time.Now()) {
		// Redis TTL should have evicted it already; belt and braces
		return nil, connect.ErrInvalidOAuthState
	}
	return &ts, nil
}

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

// MemoryStateStore is a process-local store for development and tests
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]*connect.TransactionState
	now    func() time.Time
}

var _ connect.TransactionStateStore = (*MemoryStateStore)(nil)

// NewMemoryStateStore creates an in-memory transaction state store
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]*connect.TransactionState),
		now:    time.Now,
	}
}

func (s *MemoryStateStore) Save(_ context.Context, state *connect.TransactionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *state
	s.states[state.State] = &copied
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (*connect.TransactionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.states[state]
	if !ok {
		return nil, connect.ErrInvalidOAuthState
	}
	delete(s.states, state)
	if ts.Expired(s.now()) {
		return nil, connect.ErrInvalidOAuthState
	}
	return ts, nil
}
