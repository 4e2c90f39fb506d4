package middleware

import (
	"log/slog"

	"github.com/devsque/codegate/core/logger"
	"github.com/devsque/codegate/core/telegram/callbacks"
	tghelpers "github.com/devsque/codegate/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware assigns the update its rid and logging context, then logs
// one sampled update.received line. It runs both globally and per route;
// the second pass finds the context already stored and does nothing.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, done := tghelpers.ContextFrom(c); done {
			return next(c)
		}

		ctx := tghelpers.BuildContext(c)
		c.Set("rid", logger.RIDFrom(ctx))

		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, nil, slog.LevelDebug, "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil && u.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
	}

	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, data := callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if data != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(data, 256)))
		}
	case upd.Message != nil:
		attrs = append(attrs, slog.String("input", messageKind(upd.Message)))
		if t := upd.Message.Text; t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}

func messageKind(m *tele.Message) string {
	switch {
	case m.Document != nil:
		return "document"
	case m.Photo != nil:
		return "photo"
	case m.Text != "":
		return "text"
	}
	return "other"
}
