package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"marketfront/internal/domain"
)

// Credentials are posted to the login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is posted to the register endpoint.
type Registration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	AgreeToTerms bool   `json:"agreeToTerms"`
}

// AuthResult is the outcome of a successful login.
type AuthResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login exchanges credentials for a bearer token and the user's identity.
func (c *Client) Login(ctx context.Context, cred Credentials) (AuthResult, error) {
	b, err := json.Marshal(cred)
	if err != nil {
		return AuthResult{}, err
	}
	var res AuthResult
	if err := c.call(ctx, request{
		method:      http.MethodPost,
		path:        "/api/auth/login",
		body:        bytes.NewReader(b),
		contentType: "application/json",
	}, &res); err != nil {
		return AuthResult{}, err
	}
	if res.Token == "" {
		return AuthResult{}, fmt.Errorf("backend: login: response without token")
	}
	return res, nil
}

// Register creates an account. The caller logs in afterwards.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	b, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	return c.call(ctx, request{
		method:      http.MethodPost,
		path:        "/api/auth/register",
		body:        bytes.NewReader(b),
		contentType: "application/json",
	}, nil)
}
