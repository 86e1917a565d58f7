package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/habitstreak/internal/config"
)

type failingVerifier struct{ calls int }

func (f *failingVerifier) Verify(context.Context, string) (Caller, error) {
	f.calls++
	return Caller{}, errors.New("not mine")
}

func hasDevVerifier(chain ChainVerifier) bool {
	for _, v := range chain {
		if _, ok := v.(*DevTokenVerifier); ok {
			return true
		}
	}
	return false
}

func TestBuildVerifierProductionHasNoDevTokens(t *testing.T) {
	cfg := config.Default()
	cfg.AppEnv = "production"
	cfg.GoogleClientID = "client.apps.googleusercontent.com"
	cfg.DevLoginEnabled = true
	cfg.DevTokenSecret = "a-long-local-dev-secret"

	chain, dev, err := BuildVerifier(context.Background(), cfg)
	require.NoError(t, err)
	require.Nil(t, dev)
	require.Len(t, chain, 1)
	require.False(t, hasDevVerifier(chain))
}

func TestBuildVerifierDevLoginIsOptIn(t *testing.T) {
	cfg := config.Default()

	chain, dev, err := BuildVerifier(context.Background(), cfg)
	require.NoError(t, err)
	require.Nil(t, dev)
	require.Empty(t, chain)

	cfg.DevLoginEnabled = true
	cfg.DevTokenSecret = "a-long-local-dev-secret"
	chain, dev, err = BuildVerifier(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, dev)
	require.True(t, hasDevVerifier(chain))
	require.Equal(t, cfg.DevTokenSecret, dev.Secret)
}

func TestCallerFromClaims(t *testing.T) {
	caller, err := callerFromClaims(map[string]interface{}{
		"email":   "  Ana@Example.COM ",
		"name":    "Ana",
		"picture": "https://example.com/ana.png",
	})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", caller.Email)
	require.Equal(t, "Ana", caller.Name)
	require.Equal(t, "https://example.com/ana.png", caller.PhotoURL)

	_, err = callerFromClaims(map[string]interface{}{"name": "Ana"})
	require.ErrorIs(t, err, ErrMissingEmail)

	_, err = callerFromClaims(map[string]interface{}{"email": "   "})
	require.ErrorIs(t, err, ErrMissingEmail)

	_, err = callerFromClaims(map[string]interface{}{"email": 42})
	require.ErrorIs(t, err, ErrMissingEmail)
}

func TestCallerFromGoogleClaims(t *testing.T) {
	_, err := callerFromGoogleClaims(map[string]interface{}{
		"email":          "ana@example.com",
		"email_verified": false,
	})
	require.ErrorIs(t, err, ErrUnverifiedEmail)

	caller, err := callerFromGoogleClaims(map[string]interface{}{
		"email":          "Ana@Example.com",
		"email_verified": true,
	})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", caller.Email)
}

func TestChainVerifier(t *testing.T) {
	ctx := context.Background()

	_, err := ChainVerifier{}.Verify(ctx, "anything")
	require.ErrorIs(t, err, ErrNoVerifier)

	dev := &DevTokenVerifier{Secret: "test-secret", TTL: time.Hour}
	signed, err := dev.Issue(Caller{Email: "ana@example.com", Name: "Ana"})
	require.NoError(t, err)

	first := &failingVerifier{}
	chain := ChainVerifier{first, dev}

	caller, err := chain.Verify(ctx, signed)
	require.NoError(t, err)
	require.Equal(t, 1, first.calls)
	require.Equal(t, "ana@example.com", caller.Email)
	require.Equal(t, "Ana", caller.Name)

	_, err = chain.Verify(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Equal(t, 2, first.calls)
}

func TestDevTokenRejectsOtherSecret(t *testing.T) {
	signed, err := (&DevTokenVerifier{Secret: "one-secret", TTL: time.Hour}).Issue(Caller{Email: "ana@example.com"})
	require.NoError(t, err)

	_, err = (&DevTokenVerifier{Secret: "another-secret", TTL: time.Hour}).Verify(context.Background(), signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}
