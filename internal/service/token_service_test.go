package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService(secret string, expiry time.Duration) *JWTTokenService {
	return NewJWTTokenService(secret, expiry, "wallet-ledger")
}

func TestJWTTokenService_RoundTrip(t *testing.T) {
	svc := newTokenService("unit-test-secret", time.Hour)
	userID := uuid.New()

	raw, err := svc.Generate(userID)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := svc.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestJWTTokenService_Expired(t *testing.T) {
	svc := newTokenService("unit-test-secret", -time.Minute)

	raw, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(raw)
	assert.Error(t, err)
}

func TestJWTTokenService_WrongSecret(t *testing.T) {
	issuer := newTokenService("secret-one", time.Hour)
	verifier := newTokenService("secret-two", time.Hour)

	raw, err := issuer.Generate(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Validate(raw)
	assert.Error(t, err)
}

func TestJWTTokenService_WrongIssuer(t *testing.T) {
	issuer := NewJWTTokenService("unit-test-secret", time.Hour, "someone-else")
	verifier := newTokenService("unit-test-secret", time.Hour)

	raw, err := issuer.Generate(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Validate(raw)
	assert.Error(t, err)
}

func TestJWTTokenService_Garbage(t *testing.T) {
	svc := newTokenService("unit-test-secret", time.Hour)

	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := svc.Validate(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}
