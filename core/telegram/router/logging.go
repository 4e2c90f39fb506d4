package router

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/devsque/codegate/core/logger"
	"github.com/devsque/codegate/core/telegram/apierr"
	tghelpers "github.com/devsque/codegate/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Outcome lets a handler report a non-default result without failing.
type Outcome struct {
	Status  string
	Outcome string
}

func (o *Outcome) Error() string { return o.Outcome }

// Ignored marks an update that was deliberately not acted upon.
var Ignored = &Outcome{Status: "skip", Outcome: "ignored"}

func handleWithSummary(c tele.Context, handlerName string, start time.Time, fn func() error, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, handlerName)
	err := fn()
	status, outcome := "", ""
	var o *Outcome
	if errors.As(err, &o) {
		status, outcome = o.Status, o.Outcome
		err = nil
	}
	logHandlerSummary(c, handlerName, start, status, outcome, err, extras...)
	return err
}

func logHandlerSummary(c tele.Context, handlerName string, start time.Time, status, outcome string, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, handlerName)
	if status == "" {
		status = logger.Status(err)
	}
	if outcome == "" {
		outcome = logger.Status(err)
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.String("outcome", outcome),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(apierr.Sanitize(err), 256)),
			slog.String("err_kind", apierr.Kind(err)),
			slog.String("cause", handlerName),
		)
		if code := apierr.StatusCode(err); code != 0 {
			attrs = append(attrs, slog.Int("err_code", code))
		}
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.Component("tg"), level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}
