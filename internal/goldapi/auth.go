package goldapi

import (
	"context"
	"net/http"
	"net/url"

	"goldtracker/internal/models"
)

// LoginResponse is the remote API's answer to a successful authentication.
type LoginResponse struct {
	AccessToken string             `json:"access_token"`
	User        models.UserSummary `json:"user"`
}

// LoginRequest carries email/password credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries the fields for a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges email/password credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	raw, err := c.do(ctx, http.MethodPost, epLogin, nil, req, false)
	if err != nil {
		return nil, err
	}
	resp, err := decode[LoginResponse](raw, "login response")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns the issued token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	raw, err := c.do(ctx, http.MethodPost, epRegister, nil, req, false)
	if err != nil {
		return nil, err
	}
	resp, err := decode[LoginResponse](raw, "register response")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*models.UserSummary, error) {
	raw, err := c.do(ctx, http.MethodGet, epProfile, nil, nil, true)
	if err != nil {
		return nil, err
	}
	user, err := decode[models.UserSummary](raw, "profile")
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GoogleLoginURL builds the redirect-based OAuth initiation URL. The remote
// API performs the Google flow and lands the browser on redirectURI with the
// token in the query string.
func (c *Client) GoogleLoginURL(redirectURI string) string {
	return c.baseURL + epGoogle + "?redirect_uri=" + url.QueryEscape(redirectURI)
}

// GoogleCallback exchanges an OAuth authorization code for a bearer token.
func (c *Client) GoogleCallback(ctx context.Context, code string) (*LoginResponse, error) {
	params := url.Values{"code": {code}}
	raw, err := c.do(ctx, http.MethodGet, epGoogleCallback, params, nil, false)
	if err != nil {
		return nil, err
	}
	resp, err := decode[LoginResponse](raw, "google callback response")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
