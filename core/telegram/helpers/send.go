package helpers

import (
	"context"
	"log/slog"
	"time"

	"github.com/devsque/codegate/core/logger"
	"github.com/devsque/codegate/core/telegram/apierr"

	tele "gopkg.in/telebot.v4"
)

// Sender is the part of *tele.Bot used to deliver messages.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// ChatRef addresses a chat by numeric id or @username.
type ChatRef string

// Recipient implements tele.Recipient.
func (c ChatRef) Recipient() string { return string(c) }

// Send delivers what to the recipient and logs the outcome under action.
// Failures are returned to the caller untouched; nothing is retried.
func Send(ctx context.Context, s Sender, action string, to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	start := time.Now()
	msg, err := s.Send(to, what, opts...)
	took := logger.RoundMS(time.Since(start)).Milliseconds()
	if err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.send",
			slog.String("status", "fail"),
			slog.String("handler", action),
			slog.Int64("duration_ms", took),
			slog.String("err", apierr.Sanitize(err)),
			slog.String("err_kind", apierr.Kind(err)),
		)
		return nil, err
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.send",
		slog.String("status", "ok"),
		slog.String("handler", action),
		slog.Int64("duration_ms", took),
	)
	return msg, nil
}

// SendText sends plain text with optional inline markup.
func SendText(ctx context.Context, s Sender, action string, to tele.Recipient, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if markup != nil {
		opts.ReplyMarkup = markup
	}
	_, err := Send(ctx, s, action, to, text, opts)
	return err
}
