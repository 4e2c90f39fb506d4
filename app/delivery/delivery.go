// Package delivery answers deep-link /start requests: it checks channel
// membership and sends the project archive.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/devsque/codegate/app/channel"
	"github.com/devsque/codegate/app/projects"
	"github.com/devsque/codegate/core/logger"
	"github.com/devsque/codegate/core/telegram/helpers"
	"github.com/devsque/codegate/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Caption accompanies every delivered archive.
const Caption = "🎉 Here’s your code!\n\n" +
	"Hope this helps 🙂\n" +
	"If you enjoyed it, don’t forget to like, share, and leave a comment on the reel " +
	"so others know you received the code via Telegram.\n\n" +
	"Thanks a lot for your support!"

const (
	msgWelcome  = "👋 Hi! Open a Source Code link from the channel to get a project's code."
	msgNotFound = "❌ Project not found."
	msgJoin     = "🔒 The code is available to channel members only.\nJoin the channel, then tap Retry."
)

// Gate reports channel membership.
type Gate interface {
	IsMember(ctx context.Context, userID int64) bool
}

// Service delivers archives to users.
type Service struct {
	store        projects.Store
	gate         Gate
	links        *channel.Links
	sender       helpers.Sender
	subscribeURL string
}

// NewService wires a delivery service.
func NewService(store projects.Store, gate Gate, links *channel.Links, sender helpers.Sender, subscribeURL string) *Service {
	return &Service{store: store, gate: gate, links: links, sender: sender, subscribeURL: subscribeURL}
}

// Start handles /start with an optional payload. Nothing is remembered
// between calls; every attempt repeats the membership check.
func (s *Service) Start(ctx context.Context, userID, chatID int64, payload string) error {
	to := tele.ChatID(chatID)
	if payload == "" {
		return helpers.SendText(ctx, s.sender, "delivery.welcome", to, msgWelcome, nil)
	}
	attrs := []slog.Attr{slog.String("payload", logger.SanitizeLimit(payload, 64))}

	if !s.gate.IsMember(ctx, userID) {
		logger.Info(ctx, logger.CompDelivery, "delivery.gated", append(attrs,
			slog.String("status", "skip"),
			slog.Bool("joined", false),
		)...)
		markup := keyboard.InlineButtons([]keyboard.InlineBtn{
			keyboard.Link(channel.JoinButton, s.links.JoinLink()),
			keyboard.Link(channel.RetryButton, s.links.DeepLink(payload)),
		})
		return helpers.SendText(ctx, s.sender, "delivery.gated", to, msgJoin, markup)
	}

	rec, err := s.store.Get(ctx, payload)
	if err != nil {
		if !errors.Is(err, projects.ErrNotFound) {
			logger.Error(ctx, logger.CompStore, "store.get", append(attrs,
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)...)
		}
		logger.Info(ctx, logger.CompDelivery, "delivery.not_found", append(attrs, slog.String("status", "skip"))...)
		return helpers.SendText(ctx, s.sender, "delivery.not_found", to, msgNotFound, nil)
	}

	doc := &tele.Document{File: tele.File{FileID: rec.FileRef}, Caption: Caption}
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		keyboard.Link(channel.WatchButton, rec.WatchURL),
		keyboard.Link(channel.SubscribeButton, s.subscribeURL),
	})
	if _, err := helpers.Send(ctx, s.sender, "delivery.document", to, doc, markup); err != nil {
		return fmt.Errorf("delivery: send %q: %w", payload, err)
	}
	logger.Info(ctx, logger.CompDelivery, "delivery.sent", append(attrs,
		slog.String("status", "ok"),
		slog.Bool("joined", true),
	)...)
	return nil
}
