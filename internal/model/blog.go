package model

import "errors"

// BlogFile is an attachment reference on a blog post.
type BlogFile struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// BlogOwner identifies the author of a blog post.
type BlogOwner struct {
	ID       string `json:"id"`
	FullName string `json:"fullname"`
}

// Blog is a published post with its reaction counters.
type Blog struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Files       []BlogFile `json:"files"`
	Likes       int        `json:"likes"`
	Comments    int        `json:"comments"`
	Owner       BlogOwner  `json:"owner"`
	LikedByMe   bool       `json:"likedByMe"`
}

// BlogList is the payload of GET /blog/user/all.
type BlogList struct {
	Blogs []Blog `json:"blogs"`
}

// CreateBlogRequest is the body of POST /blog/create.
type CreateBlogRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Blog errors
var (
	ErrBlogNotFound  = errors.New("blog not found")
	ErrTitleRequired = errors.New("blog title is required")
)
