package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/xyz-asif/habitstreak/internal/config"
)

// InitFirebase initializes the Firebase Admin SDK and returns the Auth client
func InitFirebase(ctx context.Context, cfg *config.Config) (*fbauth.Client, error) {
	var fbConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	opt := option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)
	app, err := firebase.NewApp(ctx, fbConfig, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	return client, nil
}

// FirebaseVerifier accepts Firebase Authentication ID tokens, which is what
// the web client obtains after email/password or Google sign-in.
type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (Caller, error) {
	tok, err := v.client.VerifyIDToken(ctx, rawToken)
	if err != nil {
		return Caller{}, fmt.Errorf("invalid firebase token: %w", err)
	}
	return callerFromClaims(tok.Claims)
}

// GoogleVerifier accepts raw Google ID tokens for the configured OAuth client.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (Caller, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return Caller{}, fmt.Errorf("invalid google token: %w", err)
	}
	return callerFromGoogleClaims(payload.Claims)
}

func callerFromGoogleClaims(claims map[string]interface{}) (Caller, error) {
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return Caller{}, ErrUnverifiedEmail
	}
	return callerFromClaims(claims)
}

// BuildVerifier assembles the verifiers enabled by configuration.
// Development tokens are accepted only when dev login is opted into outside production.
func BuildVerifier(ctx context.Context, cfg *config.Config) (ChainVerifier, *DevTokenVerifier, error) {
	var chain ChainVerifier

	if cfg.FirebaseServiceAccountPath != "" {
		client, err := InitFirebase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, NewFirebaseVerifier(client))
	}

	if cfg.GoogleClientID != "" {
		chain = append(chain, NewGoogleVerifier(cfg.GoogleClientID))
	}

	var dev *DevTokenVerifier
	if cfg.DevLoginAllowed() {
		dev = &DevTokenVerifier{Secret: cfg.DevTokenSecret, TTL: cfg.DevTokenTTL()}
		chain = append(chain, dev)
	}

	return chain, dev, nil
}
