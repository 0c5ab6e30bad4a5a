// Package requests holds the admin console's view of pending writer-role
// requests.
package requests

import (
	"sync"

	"writely_client/internal/model"
)

// Store keeps the request list fetched for the admin console and applies
// approve/reject outcomes locally.
type Store struct {
	mu       sync.RWMutex
	requests []model.WriterRequest
}

func NewStore() *Store {
	return &Store{}
}

// SetAll replaces the list, typically after a fetch.
func (s *Store) SetAll(requests []model.WriterRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append([]model.WriterRequest(nil), requests...)
}

// Approve marks one request accepted.
func (s *Store) Approve(id string) error {
	return s.setStatus(id, model.RequestAccepted)
}

// Reject marks one request rejected.
func (s *Store) Reject(id string) error {
	return s.setStatus(id, model.RequestRejected)
}

func (s *Store) setStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.requests {
		if s.requests[i].ID == id {
			s.requests[i].Status = status
			return nil
		}
	}
	return model.ErrRequestNotFound
}

// All returns a snapshot of the list.
func (s *Store) All() []model.WriterRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.WriterRequest(nil), s.requests...)
}

// Pending returns only the requests still awaiting a decision.
func (s *Store) Pending() []model.WriterRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []model.WriterRequest
	for _, r := range s.requests {
		if r.Status == model.RequestPending {
			pending = append(pending, r)
		}
	}
	return pending
}
