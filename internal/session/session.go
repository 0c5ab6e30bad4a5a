// Package session holds the process-wide authentication record. Exactly two
// things may change it: a successful login (Set) and the clearing path
// (Clear) that logout and auth failures share.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"writely_client/internal/model"
	"writely_client/internal/store"
)

// Store owns the current session. Reads are snapshots; components that need
// to react to changes register a subscriber.
type Store struct {
	mu      sync.RWMutex
	state   *store.Store
	current model.Session
	subs    []func(model.Session)
}

// NewStore builds a session store, restoring any persisted session so a
// login survives process restarts.
func NewStore(ctx context.Context, state *store.Store) (*Store, error) {
	s := &Store{state: state}

	raw, ok, err := state.Get(ctx, store.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if ok {
		var sess model.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			// A corrupt record is treated as logged out rather than an error.
			log.Printf("[Session] Discarding unreadable persisted session: %v", err)
		} else {
			s.current = sess
		}
	}

	return s, nil
}

// Set records a successful login: the issued token plus the profile payload
// (user record and permissions). The role is derived from the role record's
// username and the token's expiry from its claims.
func (s *Store) Set(ctx context.Context, token string, profile model.Profile) error {
	sess := model.Session{
		Token:       token,
		IsLoggedIn:  true,
		UserRole:    profile.UserInfo.Role.Username,
		UserInfo:    profile.UserInfo,
		Permissions: profile.Permissions,
		ExpiresAt:   tokenExpiry(token),
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.state.Put(ctx, store.SessionKey, raw); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.current = sess
	subs := s.subs
	s.mu.Unlock()

	log.Printf("[Session] User %s logged in (role=%s)", profile.UserInfo.ID, sess.UserRole)
	notifyAll(subs, sess)
	return nil
}

// Clear wipes the in-memory record and the entire persisted state. This is
// the only clearing path; logout and auth-failure handling both land here.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.state.Clear(ctx); err != nil {
		return fmt.Errorf("clear persisted state: %w", err)
	}

	s.mu.Lock()
	s.current = model.Session{}
	subs := s.subs
	s.mu.Unlock()

	log.Printf("[Session] Session cleared")
	notifyAll(subs, model.Session{})
	return nil
}

// Current returns a snapshot of the session.
func (s *Store) Current() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the stored bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// Subscribe registers fn to run after every session change.
func (s *Store) Subscribe(fn func(model.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func notifyAll(subs []func(model.Session), sess model.Session) {
	for _, fn := range subs {
		fn(sess)
	}
}

// tokenExpiry pulls the exp claim out of the token without verifying the
// signature; the client has no signing secret and the server re-validates
// every request anyway.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
