package connect

import "errors"

var (
	// ErrInvalidOAuthState is returned when a callback presents a state token
	// that does not match any stored, unexpired, unconsumed transaction
	ErrInvalidOAuthState = errors.New("oauth state is invalid or expired")

	// ErrTokenExchangeFailed is returned when the authorization-code exchange
	// is rejected by the provider
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrTokenRefreshFailed is returned when a refresh is rejected; the
	// connection is deactivated when this happens
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrTokenRevokeFailed is returned when the remote revocation call fails;
	// local deactivation still succeeds
	ErrTokenRevokeFailed = errors.New("token revocation failed")

	// ErrConnectionNotFound is returned when no connection exists for a tenant
	ErrConnectionNotFound = errors.New("xero connection not found")

	// ErrConnectionInactive is returned when the tenant's connection has been
	// revoked or deactivated
	ErrConnectionInactive = errors.New("xero connection is not active")

	// ErrNotConnectionOwner is returned when a user without ownership or the
	// top role attempts to disconnect a tenant
	ErrNotConnectionOwner = errors.New("caller does not own this connection")
)
