package api

import (
	"context"

	"shifa/internal/models"
)

// LoginRequest authenticates by phone (canonical 05 form) and password.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// RegisterRequest creates a patient account explicitly.
type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type,omitempty"`
	User      models.User `json:"user"`
}

func (r authResponse) credential() *models.Credential {
	return &models.Credential{Token: r.Token, TokenType: r.TokenType, User: r.User}
}

// Login exchanges credentials for a bearer token and identity.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*models.Credential, error) {
	var resp authResponse
	if err := c.send(ctx, "POST", "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return resp.credential(), nil
}

// Register creates an account and returns its first credential.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.Credential, error) {
	var resp authResponse
	if err := c.send(ctx, "POST", "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return resp.credential(), nil
}

// Logout invalidates the token server-side. Best effort: callers clear the
// local session regardless of this call's outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, "POST", "/auth/logout", nil, nil)
}
