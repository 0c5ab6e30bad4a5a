package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"writely_client/internal/model"
)

// ListComments fetches one page of root comments for a blog, along with the
// total root count from the envelope metadata.
func (c *Client) ListComments(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
	query := url.Values{
		"id":   {blogID},
		"page": {strconv.Itoa(page)},
	}
	env, err := c.authed(ctx, http.MethodGet, "/blog/comments", query, nil)
	if err != nil {
		return nil, 0, err
	}

	var data model.CommentPage
	if err := decodeData(env, &data); err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	var meta struct {
		Total int `json:"total"`
	}
	if err := decodeMetadata(env, &meta); err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	return data.Comments, meta.Total, nil
}

// CreateComment posts a comment (nil parentID) or a reply and returns the
// backend-assigned ID.
func (c *Client) CreateComment(ctx context.Context, blogID, message string, parentID *string) (string, error) {
	env, err := c.authed(ctx, http.MethodPost, "/blog/comment", nil, model.CreateCommentRequest{
		Message:  message,
		BlogID:   blogID,
		ParentID: parentID,
	})
	if err != nil {
		return "", err
	}

	var data struct {
		ID string `json:"_id"`
	}
	if err := decodeData(env, &data); err != nil {
		return "", fmt.Errorf("create comment: %w", err)
	}
	return data.ID, nil
}

// ReactToComment toggles the caller's reaction on a comment. key is
// ReactionLike or ReactionDislike.
func (c *Client) ReactToComment(ctx context.Context, commentID, blogID, key string) error {
	query := url.Values{
		"commentId": {commentID},
		"blogId":    {blogID},
		"key":       {key},
	}
	_, err := c.authed(ctx, http.MethodPost, "/comment/react", query, nil)
	return err
}
