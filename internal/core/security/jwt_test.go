package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", "stocktrack", time.Hour)

	actor := Actor{UserID: "u1", Name: "Dana", Role: RoleManager}
	token, err := svc.GenerateToken(actor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", "stocktrack", time.Hour)
	verifier := NewTokenService("secret-b", "stocktrack", time.Hour)

	token, err := issuer.GenerateToken(Actor{UserID: "u1", Role: RoleStaff})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("test-secret", "stocktrack", -time.Minute)

	token, err := svc.GenerateToken(Actor{UserID: "u1", Role: RoleStaff})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	issuer := NewTokenService("test-secret", "someone-else", time.Hour)
	verifier := NewTokenService("test-secret", "stocktrack", time.Hour)

	token, err := issuer.GenerateToken(Actor{UserID: "u1", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_UnknownRole(t *testing.T) {
	svc := NewTokenService("test-secret", "stocktrack", time.Hour)

	token, err := svc.GenerateToken(Actor{UserID: "u1", Role: "superuser"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
