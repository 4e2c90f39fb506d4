// Package projects stores published projects keyed by their deep-link payload.
// Records are inserted once and never updated or deleted.
package projects

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for a payload.
	ErrNotFound = errors.New("projects: not found")
	// ErrAlreadyExists is returned when inserting a payload that is already stored.
	ErrAlreadyExists = errors.New("projects: payload already exists")
)

// payloadPattern matches the alphabet Telegram accepts in a /start parameter.
var payloadPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidPayload reports whether s can be used as a deep-link payload.
func ValidPayload(s string) bool {
	return payloadPattern.MatchString(s)
}

// Record is a published project.
type Record struct {
	Payload       string    `db:"payload"`
	FileRef       string    `db:"file_ref"`
	WatchURL      string    `db:"watch_url"`
	ChannelPostID int       `db:"channel_post_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// Store is the project catalog.
type Store interface {
	// Get returns the record for payload or ErrNotFound.
	Get(ctx context.Context, payload string) (Record, error)
	// List returns all records, newest first.
	List(ctx context.Context) ([]Record, error)
	// Insert stores r unless its payload exists, in which case ErrAlreadyExists is returned.
	// A zero CreatedAt is set to the current time.
	Insert(ctx context.Context, r Record) error
}

func sortNewestFirst(list []Record) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].Payload < list[j].Payload
	})
}
