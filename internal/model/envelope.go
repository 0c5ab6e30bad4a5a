package model

import (
	"encoding/json"
	"errors"
)

// Envelope is the success wrapper every backend endpoint uses.
type Envelope struct {
	Message  string          `json:"message"`
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Links    json.RawMessage `json:"links,omitempty"`
}

// ErrorEnvelope is the failure wrapper.
type ErrorEnvelope struct {
	Status   string          `json:"status"`
	Error    ErrorDetail     `json:"error"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ErrorDetail carries the backend's error code, message and field details.
type ErrorDetail struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Reaction keys accepted by /blog/react and /comment/react.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// AuthFailureMessages is the fixed set of backend error messages that mean
// the session is no longer valid. Any of these must clear the session and
// force navigation to the login route.
var AuthFailureMessages = []string{
	"User not found or deleted.",
	"Invalid or expired token.",
	"Please Provide a Token.",
	"Invalid Token",
}

// IsAuthFailure reports whether a backend error message belongs to the
// auth-failure set. Every other message is a plain user-facing error.
func IsAuthFailure(message string) bool {
	for _, m := range AuthFailureMessages {
		if m == message {
			return true
		}
	}
	return false
}

var (
	// ErrSessionExpired is returned by API calls whose response carried an
	// auth-failure message. The session has already been cleared when a
	// caller sees this.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAuthenticated is returned when an authenticated call is
	// attempted without a stored token.
	ErrNotAuthenticated = errors.New("not authenticated")
)
