package state

import "time"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and typed data for a user.
type Session[T any] struct {
	State     State
	Data      T
	UpdatedAt time.Time
}

// Expired reports whether the session has been idle for at least ttl.
// A non-positive ttl never expires.
func (s Session[T]) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) >= ttl
}
