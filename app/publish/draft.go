package publish

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/devsque/codegate/app/projects"
	"github.com/devsque/codegate/core/telegram/state"
)

// Publish session states.
const (
	StateAwaitingArchive      state.State = "awaiting_archive"
	StateAwaitingThumbnail    state.State = "awaiting_thumbnail"
	StateAwaitingDescription  state.State = "awaiting_description"
	StateAwaitingConfirmation state.State = "awaiting_confirmation"
)

// MaxDescription is the Telegram caption limit for photos.
const MaxDescription = 1024

var (
	// ErrMalformedCommand is returned for /publish arguments that do not parse.
	ErrMalformedCommand = errors.New("publish: malformed command")
	// ErrIgnored marks input that does not match the session state or comes from a non-admin.
	ErrIgnored = errors.New("publish: input ignored")
)

// Draft is the data collected by one publish session.
type Draft struct {
	ID           string
	Payload      string
	WatchURL     string
	FileRef      string
	FileName     string
	ThumbnailRef string
	Description  string
}

// ParseCommand splits "payload | watchUrl" and validates both parts.
func ParseCommand(args string) (payload, watchURL string, err error) {
	left, right, ok := strings.Cut(args, "|")
	if !ok {
		return "", "", fmt.Errorf("%w: missing '|'", ErrMalformedCommand)
	}
	payload = strings.TrimSpace(left)
	watchURL = strings.TrimSpace(right)
	if payload == "" || watchURL == "" {
		return "", "", fmt.Errorf("%w: empty part", ErrMalformedCommand)
	}
	if !projects.ValidPayload(payload) {
		return "", "", fmt.Errorf("%w: payload %q", ErrMalformedCommand, payload)
	}
	u, perr := url.Parse(watchURL)
	if perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", fmt.Errorf("%w: watch url %q", ErrMalformedCommand, watchURL)
	}
	return payload, watchURL, nil
}
