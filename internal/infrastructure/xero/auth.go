package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/finsight/backend/internal/domain/connect"
)

// ---------------------------------------------------------------------------
// OAuth client
// ---------------------------------------------------------------------------

// AuthClient talks to the identity endpoints: authorization URL construction,
// code exchange, refresh, revocation, and the granted-connections listing.
type AuthClient struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAuthClient creates an OAuth client with the given configuration
func NewAuthClient(cfg Config, logger *zap.Logger) (*AuthClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &AuthClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.Named("xero_auth"),
	}, nil
}

// AuthorizationURL builds the consent URL for the given anti-forgery state
func (a *AuthClient) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", a.config.ClientID)
	q.Set("redirect_uri", a.config.RedirectURI)
	q.Set("scope", strings.Join(a.config.Scopes, " "))
	q.Set("state", state)
	return a.config.AuthURL + "?" + q.Encode()
}

// ExchangeCode swaps an authorization code for a token set
func (a *AuthClient) ExchangeCode(ctx context.Context, code string) (*connect.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.config.RedirectURI)

	tok, err := a.postTokenForm(ctx, a.config.TokenURL, form)
	if err != nil {
		a.logger.Warn("authorization code exchange failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", connect.ErrTokenExchangeFailed, err)
	}
	return tok, nil
}

// Refresh exchanges a refresh token for a fresh token set. The provider
// rotates the refresh token on every call.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*connect.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	tok, err := a.postTokenForm(ctx, a.config.TokenURL, form)
	if err != nil {
		a.logger.Warn("token refresh failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", connect.ErrTokenRefreshFailed, err)
	}
	return tok, nil
}

// Revoke invalidates a refresh token at the identity provider. Revoking an
// already-revoked token returns success per RFC 7009.
func (a *AuthClient) Revoke(ctx context.Context, refreshToken string) error {
	form := url.Values{}
	form.Set("token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.RevokeURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", connect.ErrTokenRevokeFailed, err)
	}
	req.SetBasicAuth(a.config.ClientID, a.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", connect.ErrTokenRevokeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		a.logger.Warn("token revocation rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return fmt.Errorf("%w: status %d", connect.ErrTokenRevokeFailed, resp.StatusCode)
	}
	return nil
}

// Connections lists the organisations the access token is authorized for
func (a *AuthClient) Connections(ctx context.Context, accessToken string) ([]TenantConnection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.ConnectionsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xero: connections request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("xero: connections request returned status %d", resp.StatusCode)
	}

	var conns []TenantConnection
	if err := json.NewDecoder(resp.Body).Decode(&conns); err != nil {
		return nil, fmt.Errorf("xero: decoding connections response: %w", err)
	}
	return conns, nil
}

func (a *AuthClient) postTokenForm(ctx context.Context, endpoint string, form url.Values) (*connect.TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(a.config.ClientID, a.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var e tokenErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("status %d: %s (%s)", resp.StatusCode, e.Error, e.ErrorDescription)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strconv.Quote(string(body)))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access token")
	}

	return &connect.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}, nil
}
