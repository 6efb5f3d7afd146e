package connect

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// DefaultStateTTL is how long an in-flight authorization attempt stays valid
const DefaultStateTTL = 10 * time.Minute

// TransactionState is the ephemeral record of one in-flight OAuth
// authorization attempt. The callback is accepted only when it presents a
// state token matching an unexpired, unconsumed transaction; a transaction is
// consumed exactly once.
type TransactionState struct {
	// State is the random opaque token embedded in the authorization URL
	State string
	// UserID is the application user who initiated the authorization
	UserID uuid.UUID
	// ExpiresAt bounds the attempt lifetime
	ExpiresAt time.Time
	// CreatedAt is when the attempt was initiated
	CreatedAt time.Time
}

// NewTransactionState creates a transaction with a fresh random state token
func NewTransactionState(userID uuid.UUID, ttl time.Duration) (*TransactionState, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	now := time.Now()
	return &TransactionState{
		State:     base64.RawURLEncoding.EncodeToString(buf),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// Expired reports whether the attempt has outlived its TTL
func (t *TransactionState) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
