package auth

import (
	"context"
	"errors"
	"time"

	"github.com/xyz-asif/habitstreak/internal/pkg/token"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNoVerifier   = errors.New("no identity verifier configured")
	ErrMissingEmail = errors.New("token carries no email")

	ErrUnverifiedEmail = errors.New("google account email is not verified")
)

// Verifier turns a bearer token into a verified caller.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Caller, error)
}

// ChainVerifier tries each verifier in order and returns the first success.
type ChainVerifier []Verifier

func (c ChainVerifier) Verify(ctx context.Context, rawToken string) (Caller, error) {
	if len(c) == 0 {
		return Caller{}, ErrNoVerifier
	}
	for _, v := range c {
		caller, err := v.Verify(ctx, rawToken)
		if err == nil {
			return caller, nil
		}
	}
	return Caller{}, ErrInvalidToken
}

// DevTokenVerifier accepts HS256 tokens issued by the dev-login endpoint.
type DevTokenVerifier struct {
	Secret string
	TTL    time.Duration
}

func (v *DevTokenVerifier) Verify(_ context.Context, rawToken string) (Caller, error) {
	claims, err := token.ValidateToken(rawToken, v.Secret)
	if err != nil {
		return Caller{}, ErrInvalidToken
	}
	return Caller{
		Email:    NormalizeEmail(claims.Email),
		Name:     claims.Name,
		PhotoURL: claims.Picture,
	}, nil
}

// Issue signs a development token for the given caller.
func (v *DevTokenVerifier) Issue(caller Caller) (string, error) {
	return token.GenerateToken(v.Secret, v.TTL, caller.Email, caller.Name, caller.PhotoURL)
}

func callerFromClaims(claims map[string]interface{}) (Caller, error) {
	email, _ := claims["email"].(string)
	email = NormalizeEmail(email)
	if email == "" {
		return Caller{}, ErrMissingEmail
	}
	caller := Caller{Email: email}
	if name, ok := claims["name"].(string); ok {
		caller.Name = name
	}
	if picture, ok := claims["picture"].(string); ok {
		caller.PhotoURL = picture
	}
	return caller, nil
}
