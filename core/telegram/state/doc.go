// Package state keeps per-user conversation state for multi-step bot flows.
// It is domain-agnostic: callers choose the payload type carried by a session.
package state
