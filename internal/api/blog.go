package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"writely_client/internal/model"
)

// GetBlog fetches a single blog post.
func (c *Client) GetBlog(ctx context.Context, blogID string) (*model.Blog, error) {
	query := url.Values{"id": {blogID}}
	env, err := c.authed(ctx, http.MethodGet, "/blog/single", query, nil)
	if err != nil {
		return nil, err
	}

	var blog model.Blog
	if err := decodeData(env, &blog); err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return &blog, nil
}

// ListUserBlogs pages through the current writer's own blogs.
func (c *Client) ListUserBlogs(ctx context.Context, limit, page int, search string) ([]model.Blog, error) {
	query := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"page":   {strconv.Itoa(page)},
		"search": {search},
	}
	env, err := c.authed(ctx, http.MethodGet, "/blog/user/all", query, nil)
	if err != nil {
		return nil, err
	}

	var list model.BlogList
	if err := decodeData(env, &list); err != nil {
		return nil, fmt.Errorf("list user blogs: %w", err)
	}
	return list.Blogs, nil
}

// CreateBlog publishes a new post. Empty titles are rejected before any
// network call.
func (c *Client) CreateBlog(ctx context.Context, req model.CreateBlogRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return model.ErrTitleRequired
	}

	if _, err := c.authed(ctx, http.MethodPost, "/blog/create", nil, req); err != nil {
		return err
	}

	c.notify.Success("Blog uploaded successfully!")
	return nil
}

// ReactToBlog toggles the caller's reaction on a post. key is ReactionLike
// or ReactionDislike.
func (c *Client) ReactToBlog(ctx context.Context, blogID, key string) error {
	query := url.Values{"id": {blogID}, "key": {key}}
	if _, err := c.authed(ctx, http.MethodPost, "/blog/react", query, nil); err != nil {
		return err
	}

	if key == model.ReactionDislike {
		c.notify.Success("Blog Disliked")
	} else {
		c.notify.Success("Blog Liked")
	}
	return nil
}
