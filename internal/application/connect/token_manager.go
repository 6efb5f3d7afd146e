package connect

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finsight/backend/internal/domain/connect"
	"github.com/finsight/backend/internal/domain/shared"
	"github.com/finsight/backend/internal/infrastructure/xero"
)

// OAuthProvider is the identity-endpoint surface the token manager needs
type OAuthProvider interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*connect.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*connect.TokenSet, error)
	Revoke(ctx context.Context, refreshToken string) error
	Connections(ctx context.Context, accessToken string) ([]xero.TenantConnection, error)
}

var _ OAuthProvider = (*xero.AuthClient)(nil)

// RevokeResult reports what a disconnect actually did
type RevokeResult struct {
	TenantID uuid.UUID `json:"tenantId"`
	// RemoteRevoked is false when the provider rejected the revocation; the
	// local connection is deactivated either way
	RemoteRevoked bool `json:"remoteRevoked"`
	// AlreadyInactive is true when the connection was revoked before this call
	AlreadyInactive bool `json:"alreadyInactive"`
}

// TokenManager owns the OAuth connection lifecycle: authorization flow,
// token storage, proactive refresh and revocation.
type TokenManager struct {
	provider    OAuthProvider
	connections connect.ConnectionRepository
	states      connect.TransactionStateStore
	scopes      []string
	stateTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time

	// refreshMu serializes refreshes per tenant so concurrent callers do not
	// burn the single-use refresh token twice
	mu        sync.Mutex
	refreshMu map[uuid.UUID]*sync.Mutex
}

// NewTokenManager creates a token manager
func NewTokenManager(
	provider OAuthProvider,
	connections connect.ConnectionRepository,
	states connect.TransactionStateStore,
	scopes []string,
	stateTTL time.Duration,
	logger *zap.Logger,
) *TokenManager {
	if stateTTL <= 0 {
		stateTTL = connect.DefaultStateTTL
	}
	return &TokenManager{
		provider:    provider,
		connections: connections,
		states:      states,
		scopes:      scopes,
		stateTTL:    stateTTL,
		logger:      logger.Named("token_manager"),
		now:         time.Now,
		refreshMu:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// GenerateAuthorizationURL starts an authorization attempt for a user and
// returns the consent URL plus the state token to echo back on the callback
func (m *TokenManager) GenerateAuthorizationURL(ctx context.Context, userID uuid.UUID) (string, string, error) {
	state, err := connect.NewTransactionState(userID, m.stateTTL)
	if err != nil {
		return "", "", err
	}
	if err := m.states.Save(ctx, state); err != nil {
		return "", "", err
	}
	return m.provider.AuthorizationURL(state.State), state.State, nil
}

// CompleteAuthorization handles the OAuth callback: it validates the state
// token, exchanges the code, and saves one connection per granted tenant.
// An invalid state rejects the callback before any token exchange happens.
func (m *TokenManager) CompleteAuthorization(ctx context.Context, state, code string) ([]connect.Connection, error) {
	transaction, err := m.states.Consume(ctx, state)
	if err != nil {
		m.logger.Warn("oauth callback rejected", zap.Error(err))
		return nil, err
	}

	tokens, err := m.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	granted, err := m.provider.Connections(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	if len(granted) == 0 {
		return nil, connect.ErrTokenExchangeFailed
	}

	scopes := strings.Join(m.scopes, " ")
	saved := make([]connect.Connection, 0, len(granted))
	for _, g := range granted {
		tenantID, err := uuid.Parse(g.TenantID)
		if err != nil {
			m.logger.Warn("skipping tenant with malformed id",
				zap.String("tenant_id", g.TenantID))
			continue
		}

		conn, err := m.connections.FindByTenant(ctx, tenantID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			conn = connect.NewConnection(tenantID, g.TenantName, transaction.UserID, *tokens, scopes)
		case err != nil:
			return nil, err
		default:
			conn.TenantName = g.TenantName
			conn.Reactivate(transaction.UserID, *tokens, scopes)
		}

		if err := m.connections.Save(ctx, conn); err != nil {
			return nil, err
		}
		m.logger.Info("connection authorized",
			zap.String("tenant_id", tenantID.String()),
			zap.String("tenant_name", g.TenantName))
		saved = append(saved, *conn)
	}
	return saved, nil
}

// GetValidConnection returns the active connection for a tenant with an
// access token guaranteed usable for at least the safety margin, refreshing
// proactively when needed. A rejected refresh deactivates the connection so
// the tenant drops out of scheduling until re-authorized.
func (m *TokenManager) GetValidConnection(ctx context.Context, tenantID uuid.UUID) (*connect.Connection, error) {
	conn, err := m.connections.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, connect.ErrConnectionNotFound
		}
		return nil, err
	}
	if !conn.NeedsRefresh(m.now()) {
		return conn, nil
	}

	mu := m.tenantMutex(tenantID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read: another caller may have refreshed while we waited
	conn, err = m.connections.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, connect.ErrConnectionNotFound
		}
		return nil, err
	}
	if !conn.NeedsRefresh(m.now()) {
		return conn, nil
	}

	tokens, err := m.provider.Refresh(ctx, conn.RefreshToken)
	if err != nil {
		if errors.Is(err, connect.ErrTokenRefreshFailed) {
			conn.Deactivate()
			if saveErr := m.connections.Save(ctx, conn); saveErr != nil {
				m.logger.Error("failed to deactivate connection after refresh rejection",
					zap.String("tenant_id", tenantID.String()), zap.Error(saveErr))
			}
			m.logger.Warn("connection deactivated, re-authorization required",
				zap.String("tenant_id", tenantID.String()),
				zap.String("tenant_name", conn.TenantName))
		}
		return nil, err
	}

	conn.Rotate(*tokens)
	if err := m.connections.Save(ctx, conn); err != nil {
		return nil, err
	}
	m.logger.Debug("access token refreshed",
		zap.String("tenant_id", tenantID.String()),
		zap.Time("expires_at", conn.ExpiresAt))
	return conn, nil
}

// Revoke disconnects a tenant. Only the connection owner or an admin may
// revoke. Revoking an already-inactive connection succeeds without calling
// the provider.
func (m *TokenManager) Revoke(ctx context.Context, tenantID, requestedBy uuid.UUID, isAdmin bool) (*RevokeResult, error) {
	conn, err := m.connections.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, connect.ErrConnectionNotFound
		}
		return nil, err
	}
	if !isAdmin && !conn.OwnedBy(requestedBy) {
		return nil, connect.ErrNotConnectionOwner
	}
	if !conn.IsActive {
		return &RevokeResult{TenantID: tenantID, AlreadyInactive: true}, nil
	}

	result := &RevokeResult{TenantID: tenantID, RemoteRevoked: true}
	if err := m.provider.Revoke(ctx, conn.RefreshToken); err != nil {
		// Deactivate locally regardless so the tenant stops syncing
		m.logger.Warn("provider revocation failed, deactivating locally",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
		result.RemoteRevoked = false
	}

	conn.Deactivate()
	if err := m.connections.Save(ctx, conn); err != nil {
		return nil, err
	}
	m.logger.Info("connection revoked",
		zap.String("tenant_id", tenantID.String()),
		zap.Bool("remote_revoked", result.RemoteRevoked))
	return result, nil
}

// ActiveConnections lists every active connection
func (m *TokenManager) ActiveConnections(ctx context.Context) ([]connect.Connection, error) {
	return m.connections.FindAllActive(ctx)
}

func (m *TokenManager) tenantMutex(tenantID uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	mu, ok := m.refreshMu[tenantID]
	if !ok {
		mu = &sync.Mutex{}
		m.refreshMu[tenantID] = mu
	}
	return mu
}
