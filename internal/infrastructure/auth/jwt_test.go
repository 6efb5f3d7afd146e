package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/backend/internal/infrastructure/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signTestToken(t *testing.T, secret, issuer string, mutate func(*Claims)) string {
	t.Helper()
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		UserID:   uuid.New().String(),
		Username: "finance.user",
		Roles:    []string{RoleFinance},
	}
	if mutate != nil {
		mutate(claims)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newTestValidator() *TokenValidator {
	return NewTokenValidator(config.JWTConfig{Secret: testSecret, Issuer: "finsight-backend"})
}

func TestValidateAcceptsSignedToken(t *testing.T) {
	v := newTestValidator()
	token := signTestToken(t, testSecret, "finsight-backend", nil)

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "finance.user", claims.Username)
	assert.True(t, claims.IsElevated())
	assert.False(t, claims.IsAdmin())
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	v := newTestValidator()
	token := signTestToken(t, "another-secret-value-entirely-32b", "finsight-backend", nil)

	_, err := v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	v := newTestValidator()
	token := signTestToken(t, testSecret, "finsight-backend", func(c *Claims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	})

	_, err := v.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	v := newTestValidator()
	token := signTestToken(t, testSecret, "someone-else", nil)

	_, err := v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestValidateRejectsMissingUserID(t *testing.T) {
	v := newTestValidator()
	token := signTestToken(t, testSecret, "finsight-backend", func(c *Claims) {
		c.UserID = ""
	})

	_, err := v.Validate(token)
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestClaimsRoleHelpers(t *testing.T) {
	admin := &Claims{Roles: []string{RoleAdmin}}
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsElevated())

	viewer := &Claims{Roles: []string{RoleViewer}}
	assert.False(t, viewer.IsAdmin())
	assert.False(t, viewer.IsElevated())
}
