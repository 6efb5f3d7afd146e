package xero

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finsight/backend/internal/domain/connect"
)

func newTestAuthClient(t *testing.T, handler http.Handler) *AuthClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		RedirectURI:    "http://localhost/callback",
		Scopes:         []string{"openid", "accounting.transactions.read", "offline_access"},
		TokenURL:       server.URL + "/connect/token",
		RevokeURL:      server.URL + "/connect/revocation",
		ConnectionsURL: server.URL + "/connections",
	}
	client, err := NewAuthClient(cfg, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestAuthorizationURL(t *testing.T) {
	client := newTestAuthClient(t, http.NewServeMux())

	raw := client.AuthorizationURL("state-token")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost/callback", q.Get("redirect_uri"))
	assert.Equal(t, "state-token", q.Get("state"))
	assert.Equal(t, "openid accounting.transactions.read offline_access", q.Get("scope"))
}

func TestExchangeCode(t *testing.T) {
	client := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "http://localhost/callback", r.PostForm.Get("redirect_uri"))

		fmt.Fprint(w, `{"access_token":"at","refresh_token":"rt","expires_in":1800,"token_type":"Bearer"}`)
	}))

	tok, err := client.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), tok.ExpiresAt, 5*time.Second)
}

func TestExchangeCodeRejected(t *testing.T) {
	client := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"code expired"}`)
	}))

	_, err := client.ExchangeCode(context.Background(), "stale-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, connect.ErrTokenExchangeFailed)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestRefresh(t *testing.T) {
	client := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-rt", r.PostForm.Get("refresh_token"))
		fmt.Fprint(w, `{"access_token":"new-at","refresh_token":"new-rt","expires_in":1800}`)
	}))

	tok, err := client.Refresh(context.Background(), "old-rt")
	require.NoError(t, err)
	assert.Equal(t, "new-at", tok.AccessToken)
	assert.Equal(t, "new-rt", tok.RefreshToken)
}

func TestRefreshFailureWrapsSentinel(t *testing.T) {
	client := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))

	_, err := client.Refresh(context.Background(), "revoked-rt")
	assert.ErrorIs(t, err, connect.ErrTokenRefreshFailed)
}

func TestRevoke(t *testing.T) {
	var gotToken string
	client := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotToken = r.PostForm.Get("token")
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, client.Revoke(context.Background(), "rt-to-revoke"))
	assert.Equal(t, "rt-to-revoke", gotToken)
}

func TestRevokeFailure(t *testing.T) {
	client := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := client.Revoke(context.Background(), "rt")
	assert.ErrorIs(t, err, connect.ErrTokenRevokeFailed)
}

func TestConnections(t *testing.T) {
	client := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[
			{"id":"11111111-1111-1111-1111-111111111111","tenantId":"22222222-2222-2222-2222-222222222222","tenantType":"ORGANISATION","tenantName":"Demo Company"}
		]`)
	}))

	conns, err := client.Connections(context.Background(), "at")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "Demo Company", conns[0].TenantName)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", conns[0].TenantID)
}
