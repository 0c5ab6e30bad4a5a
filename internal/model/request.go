package model

import "errors"

// Writer-role request statuses.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// WriterRequest is one pending "promote me to writer" request shown in the
// admin console.
type WriterRequest struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// RequestAction is the body of POST /request/approve and /request/reject.
type RequestAction struct {
	RequestID string `json:"requestId"`
}

// CreateWriterRequest is the body of POST /request/create.
type CreateWriterRequest struct {
	UserID string `json:"userId"`
}

// ErrRequestNotFound is returned when acting on an unknown request ID.
var ErrRequestNotFound = errors.New("request not found")
