package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"writely_client/internal/authgate"
	"writely_client/internal/model"
)

// tokenMetadata is the metadata payload of login and register responses.
type tokenMetadata struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token, loads the profile and records
// the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	env, err := c.do(ctx, http.MethodPost, "/auth/login", nil, model.LoginRequest{
		Email:    email,
		Password: password,
	}, "")
	if err != nil {
		return err
	}

	var meta tokenMetadata
	if err := decodeMetadata(env, &meta); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if meta.Token == "" {
		return fmt.Errorf("login: %w", model.ErrInvalidCredentials)
	}

	profile, err := c.profileWithToken(ctx, meta.Token)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := c.session.Set(ctx, meta.Token, profile); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	c.notify.Success("Logged In Successfully!")
	return nil
}

// Register creates an account and, like Login, records the issued session.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) error {
	env, err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, "")
	if err != nil {
		return err
	}

	var meta tokenMetadata
	if err := decodeMetadata(env, &meta); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if meta.Token == "" {
		return fmt.Errorf("register: %w", model.ErrInvalidCredentials)
	}

	profile, err := c.profileWithToken(ctx, meta.Token)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	if err := c.session.Set(ctx, meta.Token, profile); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	c.notify.Success(env.Message)
	return nil
}

// Logout tells the backend to drop the token, then clears the session and
// moves to the login route.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.authed(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}

	c.notify.Success("Logout Successfully")
	if err := c.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.navigate(authgate.RouteLogin, true)
	return nil
}

// ResetPassword requests a password-reset mail.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	env, err := c.do(ctx, http.MethodPost, "/auth/reset-password", nil, map[string]string{
		"email": email,
	}, "")
	if err != nil {
		return err
	}
	c.notify.Success(env.Message)
	return nil
}

// VerifyResetPassword completes a reset using the mailed token.
func (c *Client) VerifyResetPassword(ctx context.Context, token, newPassword string) error {
	query := url.Values{"token": {token}}
	env, err := c.do(ctx, http.MethodPost, "/auth/verify-reset-password", query, map[string]string{
		"password": newPassword,
	}, "")
	if err != nil {
		return err
	}
	c.notify.Success(env.Message)
	return nil
}

// GetProfile fetches the logged-in user's profile and permissions.
func (c *Client) GetProfile(ctx context.Context) (model.Profile, error) {
	return c.profileWithToken(ctx, c.session.Token())
}

func (c *Client) profileWithToken(ctx context.Context, token string) (model.Profile, error) {
	env, err := c.do(ctx, http.MethodGet, "/profile", nil, nil, token)
	if err != nil {
		return model.Profile{}, err
	}

	var profile model.Profile
	if err := decodeData(env, &profile); err != nil {
		return model.Profile{}, fmt.Errorf("profile: %w", err)
	}
	return profile, nil
}
