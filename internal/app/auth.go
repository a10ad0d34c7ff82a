package app

import (
	"context"
	"errors"
	"strings"

	"carecompanion/internal/api"
)

// Auth operations bridge the REST endpoints and the credential store.
// Validation failures are rejected before any network call.

func (a *Application) Login(ctx context.Context, email, password string) (*api.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}
	resp, err := a.Client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.Credentials.SetSession(resp.Token, &resp.User); err != nil {
		a.Logger.Warn("credential save failed", map[string]any{"error": err.Error()})
	}
	return &resp.User, nil
}

func (a *Application) Register(ctx context.Context, name, email, password, userType string) (*api.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, errors.New("name, email and password are required")
	}
	if userType == "" {
		userType = "user"
	}

	// A locally drafted onboarding answer set rides along with signup and
	// is cleared once the server has it.
	var onboarding map[string]any
	if a.Local != nil {
		if draft, err := a.Local.OnboardingDraft(); err == nil {
			onboarding = draft
		}
	}

	resp, err := a.Client.Register(ctx, name, email, password, userType, onboarding)
	if err != nil {
		return nil, err
	}
	if err := a.Credentials.SetSession(resp.Token, &resp.User); err != nil {
		a.Logger.Warn("credential save failed", map[string]any{"error": err.Error()})
	}
	if a.Local != nil && onboarding != nil {
		_ = a.Local.ClearOnboardingDraft()
	}
	return &resp.User, nil
}

// Verify posts the stored token to the server and refreshes the cached
// user record. There is no refresh flow: an invalid token means re-login.
func (a *Application) Verify(ctx context.Context) (*api.User, error) {
	token := a.Credentials.Token()
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	resp, err := a.Client.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, ErrNotLoggedIn
	}
	if err := a.Credentials.SetSession(token, &resp.User); err != nil {
		a.Logger.Warn("credential save failed", map[string]any{"error": err.Error()})
	}
	return &resp.User, nil
}

// Logout is purely local: the token and cached user are forgotten.
func (a *Application) Logout() error {
	return a.Credentials.Clear()
}

// SetOnboarding records onboarding answers. Logged in they go straight to
// the server; logged out they are drafted locally and ride along with the
// next registration.
func (a *Application) SetOnboarding(ctx context.Context, data map[string]any) error {
	if len(data) == 0 {
		return errors.New("no onboarding data provided")
	}
	if a.Credentials.Token() != "" {
		return a.Client.UpdateOnboardingData(ctx, data)
	}
	if a.Local == nil {
		return errors.New("local store unavailable")
	}
	return a.Local.SaveOnboardingDraft(data)
}
