// Package membership checks whether a user belongs to the distribution channel.
package membership

import (
	"context"
	"log/slog"
	"time"

	"github.com/devsque/codegate/core/logger"
	"github.com/devsque/codegate/core/telegram/apierr"

	tele "gopkg.in/telebot.v4"
)

// MemberLookup is the part of *tele.Bot used by the gate.
type MemberLookup interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// Gate answers membership questions for one channel.
type Gate struct {
	api     MemberLookup
	channel tele.Recipient
}

// NewGate returns a gate for channel.
func NewGate(api MemberLookup, channel tele.Recipient) *Gate {
	return &Gate{api: api, channel: channel}
}

// Joined reports whether status counts as channel membership.
func Joined(status tele.MemberStatus) bool {
	switch status {
	case tele.Member, tele.Administrator, tele.Creator:
		return true
	}
	return false
}

// IsMember reports whether the user is currently a channel member.
// Lookup failures count as not joined.
func (g *Gate) IsMember(ctx context.Context, userID int64) bool {
	start := time.Now()
	m, err := g.api.ChatMemberOf(g.channel, &tele.User{ID: userID})
	took := logger.RoundMS(time.Since(start)).Milliseconds()
	if err != nil {
		logger.Warn(ctx, logger.CompMembership, "membership.check",
			slog.String("status", "fail"),
			slog.Bool("joined", false),
			slog.Int64("duration_ms", took),
			slog.String("err", apierr.Sanitize(err)),
			slog.String("err_kind", apierr.Kind(err)),
		)
		return false
	}
	joined := m != nil && Joined(m.Role)
	status := ""
	if m != nil {
		status = string(m.Role)
	}
	logger.Debug(ctx, logger.CompMembership, "membership.check",
		slog.String("status", "ok"),
		slog.Bool("joined", joined),
		slog.String("member_status", status),
		slog.Int64("duration_ms", took),
	)
	return joined
}
