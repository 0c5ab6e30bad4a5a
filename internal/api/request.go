package api

import (
	"context"
	"fmt"
	"net/http"

	"writely_client/internal/model"
)

// requestRow is the wire shape of one writer-role request.
type requestRow struct {
	ID     string `json:"_id"`
	Status string `json:"status"`
	User   struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"user_id"`
}

// CreateWriterRequest asks for promotion to the writer role on behalf of
// the logged-in user.
func (c *Client) CreateWriterRequest(ctx context.Context) error {
	userID := c.session.Current().UserInfo.ID
	_, err := c.authed(ctx, http.MethodPost, "/request/create", nil, model.CreateWriterRequest{
		UserID: userID,
	})
	if err != nil {
		return err
	}

	c.notify.Success("Request is Sent")
	return nil
}

// ListRequests fetches every writer-role request for the admin console.
func (c *Client) ListRequests(ctx context.Context) ([]model.WriterRequest, error) {
	env, err := c.authed(ctx, http.MethodGet, "/request/all", nil, nil)
	if err != nil {
		return nil, err
	}

	var rows []requestRow
	if err := decodeData(env, &rows); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	requests := make([]model.WriterRequest, len(rows))
	for i, row := range rows {
		requests[i] = model.WriterRequest{
			ID:     row.ID,
			Name:   row.User.FirstName + " " + row.User.LastName,
			Status: row.Status,
		}
	}

	c.notify.Success(env.Message)
	return requests, nil
}

// ApproveRequest accepts a writer-role request.
func (c *Client) ApproveRequest(ctx context.Context, requestID string) error {
	env, err := c.authed(ctx, http.MethodPost, "/request/approve", nil, model.RequestAction{
		RequestID: requestID,
	})
	if err != nil {
		return err
	}
	c.notify.Success(env.Message)
	return nil
}

// RejectRequest declines a writer-role request.
func (c *Client) RejectRequest(ctx context.Context, requestID string) error {
	env, err := c.authed(ctx, http.MethodPost, "/request/reject", nil, model.RequestAction{
		RequestID: requestID,
	})
	if err != nil {
		return err
	}
	c.notify.Success(env.Message)
	return nil
}
