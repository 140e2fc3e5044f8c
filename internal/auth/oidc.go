package auth

import (
	"context"
	"errors"
	"fmt"

	"soulbalance/internal/config"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Authenticator holds the OIDC provider, OAuth2 config and ID token verifier
// used for the optional single sign-on login.
type Authenticator struct {
	*oidc.Provider
	*oauth2.Config
	*oidc.IDTokenVerifier
}

// Identity is what the application needs from a verified ID token.
type Identity struct {
	Subject  string
	Email    string
	Username string
}

// NewAuthenticator discovers the provider at cfg.IssuerURL.
func NewAuthenticator(ctx context.Context, cfg config.OIDCConfig) (*Authenticator, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, err
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &Authenticator{
		Provider:        provider,
		Config:          oauth2Config,
		IDTokenVerifier: verifier,
	}, nil
}

// Exchange trades an authorization code for a verified identity.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := a.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token in token response")
	}
	idToken, err := a.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims struct {
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
		Name              string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	if claims.Email == "" {
		return nil, errors.New("provider did not return an email")
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Name
	}
	return &Identity{Subject: idToken.Subject, Email: claims.Email, Username: username}, nil
}
