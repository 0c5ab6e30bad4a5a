// Package api is the REST client for the Writely backend. Every call speaks
// the platform's envelope contract and funnels auth failures through the
// session-clearing path.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"writely_client/internal/authgate"
	"writely_client/internal/config"
	"writely_client/internal/model"
	"writely_client/internal/notify"
	"writely_client/internal/session"
)

// Navigator performs a route change on behalf of the client, replacing the
// history entry when replace is true.
type Navigator func(target string, replace bool)

// Error is a backend error that is not an auth failure: something to show
// the user, never a logout trigger.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// Client calls the backend. It owns the cross-cutting concerns every
// endpoint shares: bearer auth, request IDs, envelope decoding and the
// auth-failure logout flow.
type Client struct {
	baseURL  string
	http     *http.Client
	session  *session.Store
	notify   notify.Notifier
	navigate Navigator
}

// NewClient builds a client. A nil navigator or notifier falls back to
// no-op navigation and log toasts.
func NewClient(cfg *config.Config, sess *session.Store, notifier notify.Notifier, navigate Navigator) *Client {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	if navigate == nil {
		navigate = func(string, bool) {}
	}
	return &Client{
		baseURL:  cfg.BackendURL,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
		session:  sess,
		notify:   notifier,
		navigate: navigate,
	}
}

// do performs one request and decodes the envelope. token is attached as a
// bearer credential when non-empty. Non-2xx responses are decoded as error
// envelopes and run through handleAPIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, token string) (*model.Envelope, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.notify.Error("Something went wrong. Please try again.")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.handleAPIError(ctx, method, path, resp)
	}

	var env model.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.notify.Error("Something went wrong. Please try again.")
		return nil, fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return &env, nil
}

// authed runs do with the stored session token.
func (c *Client) authed(ctx context.Context, method, path string, query url.Values, body any) (*model.Envelope, error) {
	return c.do(ctx, method, path, query, body, c.session.Token())
}

// handleAPIError decodes an error envelope and surfaces the message. For
// the fixed auth-failure message set it also clears the session and forces
// navigation to the login route.
func (c *Client) handleAPIError(ctx context.Context, method, path string, resp *http.Response) error {
	var env model.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.notify.Error("Something went wrong. Please try again.")
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	message := env.Error.Message
	c.notify.Error(message)

	if model.IsAuthFailure(message) {
		log.Printf("[API] Auth failure on %s %s: %s", method, path, message)
		if err := c.session.Clear(ctx); err != nil {
			log.Printf("[API] Failed to clear session: %v", err)
		}
		c.navigate(authgate.RouteLogin, true)
		return fmt.Errorf("%s %s: %w", method, path, model.ErrSessionExpired)
	}

	return &Error{Code: env.Error.Code, Message: message}
}

// decodeData unmarshals an envelope's data payload into out.
func decodeData(env *model.Envelope, out any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("empty data payload")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data payload: %w", err)
	}
	return nil
}

// decodeMetadata unmarshals an envelope's metadata payload into out.
func decodeMetadata(env *model.Envelope, out any) error {
	if len(env.Metadata) == 0 {
		return fmt.Errorf("empty metadata payload")
	}
	if err := json.Unmarshal(env.Metadata, out); err != nil {
		return fmt.Errorf("decode metadata payload: %w", err)
	}
	return nil
}

// SetHTTPClient swaps the underlying transport. Tests use it to tighten
// timeouts.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.http = hc
	}
}
