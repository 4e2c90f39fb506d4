package router

import (
	"time"

	tg "github.com/devsque/codegate/core/telegram"
	tghelpers "github.com/devsque/codegate/core/telegram/helpers"
	"github.com/devsque/codegate/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for a conversation manager.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// MessageOptions controls fallback behaviour for messages outside a conversation.
type MessageOptions struct {
	Unknown tele.HandlerFunc
}

// MessageRoutes builds handlers for text, document and photo updates.
// Messages from users with an open conversation go to the FSM; the rest reach
// the Unknown fallback. Registered commands are matched by telebot first.
func MessageRoutes(fsmMgr FSM, opts MessageOptions) []tg.Route {
	handle := func(kind string) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()

			if fsmMgr != nil && fsmMgr.InProgress(tghelpers.SenderID(c)) {
				return handleWithSummary(c, "fsm_"+kind, start, func() error {
					return fsmMgr.ManagerHandler(c)
				})
			}

			if opts.Unknown != nil {
				return handleWithSummary(c, "unknown_"+kind, start, func() error {
					return opts.Unknown(c)
				})
			}

			logHandlerSummary(c, "unknown_"+kind, start, "skip", "ignored", nil)
			return nil
		}
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(handle("text"))},
		{Endpoint: tele.OnDocument, Handler: wrap(handle("document"))},
		{Endpoint: tele.OnPhoto, Handler: wrap(handle("photo"))},
	}
}
