package model

import "errors"

// CommentAuthor identifies who wrote a comment.
type CommentAuthor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"fullname"`
}

// Comment is one node of a post's comment forest. Replies hold only
// comments whose ParentID equals this comment's ID; a nil ParentID marks a
// root comment. Replies are ordered newest-first.
type Comment struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Author    CommentAuthor `json:"userId"`
	BlogID    string        `json:"blogId"`
	ParentID  *string       `json:"parentId"`
	Likes     int           `json:"likes"`
	LikedByMe bool          `json:"likedByMe"`
	Replies   []*Comment    `json:"replies"`
}

// CommentPage is the payload of GET /blog/comments: one page of root
// comments. The total root count arrives in the envelope metadata.
type CommentPage struct {
	Comments []*Comment `json:"comments"`
}

// CreateCommentRequest is the body of POST /blog/comment. A nil ParentID
// creates a root comment, otherwise a reply.
type CreateCommentRequest struct {
	Message  string  `json:"message"`
	BlogID   string  `json:"blogId"`
	ParentID *string `json:"parentId,omitempty"`
}

// Comment errors
var (
	ErrEmptyMessage    = errors.New("comment message is empty")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNoBlogSelected  = errors.New("no blog selected")
)
