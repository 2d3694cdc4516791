package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"goldtracker/internal/errors"
)

const googleIssuer = "https://accounts.google.com"

// Identity is the subset of the ID token used to create a local account.
type Identity struct {
	Email    string
	Name     string
	Picture  string
	Verified bool
}

// SSO performs the Google sign-in flow for standalone mode. When client
// credentials are not configured, Enabled is false and the login page
// simply omits the Google button.
type SSO struct {
	Enabled  bool
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewSSO discovers the Google provider and builds the oauth2 config. A
// missing client ID disables SSO without error.
func NewSSO(ctx context.Context, clientID, clientSecret, redirectURL string) (*SSO, error) {
	if clientID == "" {
		return &SSO{}, nil
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("discovering google provider: %w", err)
	}

	return &SSO{
		Enabled: true,
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthURL returns the Google consent URL for the given state.
func (s *SSO) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades the callback code for a verified identity.
func (s *SSO) Exchange(ctx context.Context, code string) (Identity, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, errors.Network("exchanging authorization code failed", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return Identity{}, fmt.Errorf("token response carried no id_token")
	}
	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, fmt.Errorf("verifying id token: %w", err)
	}

	var claims struct {
		Email    string `json:"email"`
		Verified bool   `json:"email_verified"`
		Name     string `json:"name"`
		Picture  string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("decoding id token claims: %w", err)
	}
	if claims.Email == "" {
		return Identity{}, fmt.Errorf("id token carried no email")
	}

	return Identity{
		Email:    claims.Email,
		Name:     claims.Name,
		Picture:  claims.Picture,
		Verified: claims.Verified,
	}, nil
}
