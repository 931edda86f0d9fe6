package provider

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/oauth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	GoogleIssuer = "https://accounts.google.com"

	googleScopeEmail   string = "email"
	googleScopeProfile string = "profile"
)

var errNoIDToken = errors.New("token response has no id_token")

// Google verifies Google ID tokens locally against the published signing keys
// and drives the authorization code flow when a client secret is configured.
type Google struct {
	cfg      *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// GoogleConfig holds the configuration for the Google OAuth provider
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type userClaims struct {
	Sub      string `json:"sub,omitempty"`
	Email    string `json:"email,omitempty"`
	Verified bool   `json:"email_verified,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// NewGoogle creates a new Google OAuth provider with the given configuration
func NewGoogle(ctx context.Context, google GoogleConfig) (*Google, error) {
	p, err := oidc.NewProvider(ctx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("new oidc provider: %w", err)
	}

	return newGoogle(google, p.Verifier(&oidc.Config{ClientID: google.ClientID})), nil
}

func newGoogle(google GoogleConfig, verifier *oidc.IDTokenVerifier) *Google {
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     google.ClientID,
			ClientSecret: google.ClientSecret,
			RedirectURL:  google.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, googleScopeProfile, googleScopeEmail},
			Endpoint:     endpoints.Google,
		},
		verifier: verifier,
	}
}

// LoginURL generates the Google OAuth login URL with the given state
func (g *Google) LoginURL(state, nonce string) (string, error) {
	return g.cfg.AuthCodeURL(state, oidc.Nonce(nonce)), nil
}

// Exchange exchanges the authorization code for an OAuth user
func (g *Google) Exchange(ctx context.Context, code string) (oauth.User, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return oauth.User{}, err
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return oauth.User{}, errNoIDToken
	}

	return g.Verify(ctx, raw)
}

// Verify checks the signature, issuer, audience and expiry of a Google ID token.
func (g *Google) Verify(ctx context.Context, rawIDToken string) (oauth.User, error) {
	idTok, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return oauth.User{}, fmt.Errorf("%w: %w", oauth.ErrInvalidAssertion, err)
	}

	var usr userClaims
	if err := idTok.Claims(&usr); err != nil {
		return oauth.User{}, fmt.Errorf("%w: read claims: %w", oauth.ErrMalformedResponse, err)
	}

	if usr.Sub == "" {
		return oauth.User{}, fmt.Errorf("%w: missing sub", oauth.ErrMalformedResponse)
	}

	return oauth.User{
		Nonce:         idTok.Nonce,
		ID:            usr.Sub,
		Email:         usr.Email,
		EmailVerified: usr.Verified,
		Picture:       usr.Picture,
		Name:          nameOrDefault(usr.Name, defaultName(usr.Sub)),
	}, nil
}

// nameOrDefault returns the user's name if it's not empty; otherwise, it returns the default name
func nameOrDefault(name, def string) string {
	if name != "" {
		return name
	}
	return def
}

// defaultName generates a default name based on the user's subject identifier
func defaultName(sub string) string {
	id := sha1.Sum([]byte(sub))
	return fmt.Sprintf("google_%x", id[:8])
}
