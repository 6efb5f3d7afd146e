package xero

import (
	"fmt"
	"time"
)

// Config holds the OAuth application credentials and endpoint layout for one
// Xero app registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthURL        string
	TokenURL       string
	RevokeURL      string
	ConnectionsURL string
	APIBaseURL     string

	PageSize       int
	RequestTimeout time.Duration
	MaxAttempts    int
	// RateLimitPerMinute is the per-tenant request budget enforced client-side
	RateLimitPerMinute int
}

// Validate checks required fields and applies defaults for optional ones
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("xero: client id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("xero: client secret is required")
	}
	if c.RedirectURI == "" {
		return fmt.Errorf("xero: redirect uri is required")
	}
	if c.AuthURL == "" {
		c.AuthURL = "https://login.xero.com/identity/connect/authorize"
	}
	if c.TokenURL == "" {
		c.TokenURL = "https://identity.xero.com/connect/token"
	}
	if c.RevokeURL == "" {
		c.RevokeURL = "https://identity.xero.com/connect/revocation"
	}
	if c.ConnectionsURL == "" {
		c.ConnectionsURL = "https://api.xero.com/connections"
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://api.xero.com/api.xro/2.0"
	}
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 4
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 60
	}
	return nil
}
