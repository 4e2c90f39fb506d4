package middleware

import (
	"log/slog"

	"github.com/devsque/codegate/core/logger"
	tghelpers "github.com/devsque/codegate/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only the admin user can invoke downstream handlers.
// Other senders are dropped, or passed to OnReject when set.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.AdminID != 0 && tghelpers.SenderID(c) != opts.AdminID {
				ctx := tghelpers.BuildContext(c)
				logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "access.denied",
					slog.String("status", "skip"),
					slog.String("outcome", "ignored"),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
