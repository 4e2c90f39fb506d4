// Package channel builds t.me links and publishes project posts to the distribution channel.
package channel

import (
	"fmt"
	"net/url"
	"sync"
)

// Links renders the t.me URLs used in posts and replies.
type Links struct {
	mu          sync.RWMutex
	botUsername string
	channelName string
}

// NewLinks returns link helpers for the bot and the public channel name.
func NewLinks(botUsername, channelName string) *Links {
	return &Links{botUsername: botUsername, channelName: channelName}
}

// SetBotUsername sets the username resolved from getMe.
func (l *Links) SetBotUsername(name string) {
	l.mu.Lock()
	l.botUsername = name
	l.mu.Unlock()
}

// BotUsername returns the bot username used in deep-links.
func (l *Links) BotUsername() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.botUsername
}

// DeepLink returns the link that opens the bot with /start payload.
func (l *Links) DeepLink(payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", l.BotUsername(), url.QueryEscape(payload))
}

// PostLink returns the public link to a channel post.
func (l *Links) PostLink(postID int) string {
	return fmt.Sprintf("https://t.me/%s/%d", l.channelName, postID)
}

// JoinLink returns the public link to the channel.
func (l *Links) JoinLink() string {
	return "https://t.me/" + l.channelName
}
