package state

import (
	"sort"
	"sync"
	"time"
)

// Store is an in-memory session table keyed by Telegram user id.
// Sessions idle for longer than the TTL are treated as absent.
type Store[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]Session[T]
	ttl      time.Duration
	now      func() time.Time
}

// Option customises a Store.
type Option[T any] func(*Store[T])

// WithClock overrides the time source, mainly for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *Store[T]) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs a Store; ttl <= 0 disables idle expiry.
func NewStore[T any](ttl time.Duration, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		sessions: make(map[int64]Session[T]),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured idle timeout.
func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}

// Get returns a copy of the live session for a user.
func (s *Store[T]) Get(userID int64) (Session[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok || sess.Expired(s.now(), s.ttl) {
		return Session[T]{State: StateIdle}, false
	}
	return sess, true
}

// Put stores state and data for a user and refreshes the idle clock.
func (s *Store[T]) Put(userID int64, st State, data T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = Session[T]{State: st, Data: data, UpdatedAt: s.now()}
}

// Clear removes the session for a user.
func (s *Store[T]) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// GetState returns the current state of a user, or StateIdle if none exists.
func (s *Store[T]) GetState(userID int64) State {
	sess, _ := s.Get(userID)
	return sess.State
}

// InProgress reports whether the user currently has a live non-idle session.
func (s *Store[T]) InProgress(userID int64) bool {
	sess, ok := s.Get(userID)
	return ok && sess.State != StateIdle
}

// Sweep deletes expired sessions and returns them keyed by user id, in user id order.
func (s *Store[T]) Sweep() []Expired[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []Expired[T]
	for id, sess := range s.sessions {
		if sess.Expired(now, s.ttl) {
			out = append(out, Expired[T]{UserID: id, Session: sess})
			delete(s.sessions, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Expired pairs a swept session with its owner.
type Expired[T any] struct {
	UserID  int64
	Session Session[T]
}
