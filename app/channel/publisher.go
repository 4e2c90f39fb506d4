package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/devsque/codegate/core/logger"
	"github.com/devsque/codegate/core/telegram/apierr"
	"github.com/devsque/codegate/core/telegram/helpers"
	"github.com/devsque/codegate/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Button labels shared by channel posts and replies.
const (
	SourceCodeButton = "⚙️ Source Code"
	SubscribeButton  = "🔔 Subscribe"
	WatchButton      = "🎬 Watch"
	JoinButton       = "📢 Join Channel"
	RetryButton      = "🔄 Retry"
)

// Post is the formatted channel message of one project.
type Post struct {
	ThumbnailRef string
	Caption      string
	Markup       *tele.ReplyMarkup
}

// PostRef identifies a sent channel post.
type PostRef struct {
	ChatID    int64
	MessageID int
}

// MessageSig implements tele.Editable.
func (p PostRef) MessageSig() (string, int64) {
	return strconv.Itoa(p.MessageID), p.ChatID
}

// PostButtons returns the link rows of a project post: source code on top,
// subscribe and watch below.
func PostButtons(links *Links, payload, subscribeURL, watchURL string) [][]keyboard.InlineBtn {
	return [][]keyboard.InlineBtn{
		{keyboard.Link(SourceCodeButton, links.DeepLink(payload))},
		{keyboard.Link(SubscribeButton, subscribeURL), keyboard.Link(WatchButton, watchURL)},
	}
}

// API is the part of *tele.Bot used by the publisher.
type API interface {
	helpers.Sender
	Delete(msg tele.Editable) error
}

// Publisher sends posts to the distribution channel.
type Publisher struct {
	api     API
	channel tele.Recipient
}

// NewPublisher returns a publisher for channel.
func NewPublisher(api API, channel tele.Recipient) *Publisher {
	return &Publisher{api: api, channel: channel}
}

// Publish sends the post and returns the reference assigned by Telegram.
func (p *Publisher) Publish(ctx context.Context, post Post) (PostRef, error) {
	photo := &tele.Photo{File: tele.File{FileID: post.ThumbnailRef}, Caption: post.Caption}
	msg, err := helpers.Send(ctx, p.api, "channel.publish", p.channel, photo, post.Markup)
	if err != nil {
		return PostRef{}, fmt.Errorf("channel: publish: %w", err)
	}
	ref := PostRef{MessageID: msg.ID}
	if msg.Chat != nil {
		ref.ChatID = msg.Chat.ID
	}
	logger.Info(ctx, logger.CompChannel, "channel.posted",
		slog.String("status", "ok"),
		slog.Int("post_id", ref.MessageID),
	)
	return ref, nil
}

// Retract deletes a previously published post.
func (p *Publisher) Retract(ctx context.Context, ref PostRef) error {
	if err := p.api.Delete(ref); err != nil {
		logger.Error(ctx, logger.CompChannel, "channel.retract",
			slog.String("status", "fail"),
			slog.Int("post_id", ref.MessageID),
			slog.String("err", apierr.Sanitize(err)),
			slog.String("err_kind", apierr.Kind(err)),
		)
		return fmt.Errorf("channel: retract %d: %w", ref.MessageID, err)
	}
	logger.Warn(ctx, logger.CompChannel, "channel.retract",
		slog.String("status", "ok"),
		slog.Int("post_id", ref.MessageID),
	)
	return nil
}
