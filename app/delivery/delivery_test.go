package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsque/codegate/app/channel"
	"github.com/devsque/codegate/app/membership"
	"github.com/devsque/codegate/app/projects"
	"github.com/devsque/codegate/core/telegram/helpers"
	"github.com/devsque/codegate/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

const (
	userID   = int64(1001)
	userChat = "1001"
)

type brokenStore struct{ projects.Store }

func (brokenStore) Get(context.Context, string) (projects.Record, error) {
	return projects.Record{}, errors.New("connection refused")
}

func newService(t *testing.T, store projects.Store) (*Service, *teletest.Bot) {
	t.Helper()
	bot := teletest.New()
	if store == nil {
		store = projects.NewMemoryStore()
		require.NoError(t, store.Insert(context.Background(), projects.Record{
			Payload: "demo", FileRef: "ZIP", WatchURL: "https://example.com/watch", ChannelPostID: 5,
		}))
	}
	gate := membership.NewGate(bot, helpers.ChatRef("@devsque"))
	links := channel.NewLinks("devsquebot", "devsque")
	return NewService(store, gate, links, bot, "https://youtube.com/@devsque"), bot
}

func TestJoinedUserReceivesArchive(t *testing.T) {
	svc, bot := newService(t, nil)
	bot.Members[userID] = tele.Member

	require.NoError(t, svc.Start(context.Background(), userID, userID, "demo"))

	msg, ok := bot.Last(userChat)
	require.True(t, ok)
	assert.Equal(t, "document", msg.Kind)
	assert.Equal(t, "ZIP", msg.FileRef)
	assert.Equal(t, Caption, msg.Caption)
	assert.Equal(t, [][]string{{channel.WatchButton}, {channel.SubscribeButton}}, msg.Buttons())
	watch, _ := msg.Button(channel.WatchButton)
	assert.Equal(t, "https://example.com/watch", watch.URL)
}

func TestNotJoinedUserIsGated(t *testing.T) {
	for _, status := range []tele.MemberStatus{tele.Left, tele.Kicked} {
		t.Run(string(status), func(t *testing.T) {
			svc, bot := newService(t, nil)
			bot.Members[userID] = status

			require.NoError(t, svc.Start(context.Background(), userID, userID, "demo"))

			sent := bot.SentTo(userChat)
			require.Len(t, sent, 1)
			assert.Equal(t, "text", sent[0].Kind)
			assert.Equal(t, msgJoin, sent[0].Text)
			join, ok := sent[0].Button(channel.JoinButton)
			require.True(t, ok)
			assert.Equal(t, "https://t.me/devsque", join.URL)
			retry, ok := sent[0].Button(channel.RetryButton)
			require.True(t, ok)
			assert.Equal(t, "https://t.me/devsquebot?start=demo", retry.URL)
		})
	}
}

func TestMembershipErrorIsGated(t *testing.T) {
	svc, bot := newService(t, nil)
	bot.Members[userID] = tele.Member
	bot.MemberErr = errors.New("timeout")

	require.NoError(t, svc.Start(context.Background(), userID, userID, "demo"))
	msg, _ := bot.Last(userChat)
	assert.Equal(t, msgJoin, msg.Text)
}

func TestRetryRepeatsCheck(t *testing.T) {
	svc, bot := newService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx, userID, userID, "demo"))
	msg, _ := bot.Last(userChat)
	assert.Equal(t, msgJoin, msg.Text)

	bot.Members[userID] = tele.Member
	require.NoError(t, svc.Start(ctx, userID, userID, "demo"))
	msg, _ = bot.Last(userChat)
	assert.Equal(t, "document", msg.Kind)
}

func TestUnknownPayload(t *testing.T) {
	svc, bot := newService(t, nil)
	bot.Members[userID] = tele.Member

	require.NoError(t, svc.Start(context.Background(), userID, userID, "ghost"))
	msg, _ := bot.Last(userChat)
	assert.Equal(t, msgNotFound, msg.Text)
}

func TestStoreFailureReadsAsNotFound(t *testing.T) {
	svc, bot := newService(t, brokenStore{})
	bot.Members[userID] = tele.Member

	require.NoError(t, svc.Start(context.Background(), userID, userID, "demo"))
	msg, _ := bot.Last(userChat)
	assert.Equal(t, msgNotFound, msg.Text)
}

func TestBareStartWelcomes(t *testing.T) {
	svc, bot := newService(t, nil)

	require.NoError(t, svc.Start(context.Background(), userID, userID, ""))
	msg, _ := bot.Last(userChat)
	assert.Equal(t, msgWelcome, msg.Text)
}

func TestSendFailureSurfaces(t *testing.T) {
	svc, bot := newService(t, nil)
	bot.Members[userID] = tele.Member
	bot.FailSend[userChat] = teletest.ErrSendFailed

	err := svc.Start(context.Background(), userID, userID, "demo")
	assert.ErrorIs(t, err, teletest.ErrSendFailed)
}
