package api

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Password       string         `json:"password"`
	UserType       string         `json:"user_type,omitempty"`
	OnboardingData map[string]any `json:"onboarding_data,omitempty"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.Do(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password, userType string, onboarding map[string]any) (*AuthResponse, error) {
	var out AuthResponse
	req := registerRequest{Name: name, Email: email, Password: password, UserType: userType, OnboardingData: onboarding}
	if err := c.Do(ctx, http.MethodPost, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyToken posts the stored token back to the server and returns the
// current user. There is no refresh flow; an auth failure means re-login.
func (c *Client) VerifyToken(ctx context.Context, token string) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/verify-token", verifyRequest{Token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOnboardingData(ctx context.Context, data map[string]any) error {
	body := map[string]any{"onboarding_data": data}
	return c.Do(ctx, http.MethodPut, "/api/user/onboarding-data", body, nil)
}
