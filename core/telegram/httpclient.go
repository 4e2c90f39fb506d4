package telegram

import (
	"net"
	"net/http"
	"time"
)

const (
	// minClientTimeout covers uploads of large archives.
	minClientTimeout = 60 * time.Second
	// pollSlack is added on top of the long-poll timeout.
	pollSlack = 15 * time.Second
)

// BuildHTTPClient returns the client used for Bot API calls. Failed calls
// surface to the caller as-is; nothing is retried.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: max(minClientTimeout, longPoll+pollSlack),
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
}
