package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsque/codegate/core/telegram/helpers"
	"github.com/devsque/codegate/core/telegram/keyboard"
	"github.com/devsque/codegate/core/telegram/teletest"
)

func TestLinks(t *testing.T) {
	l := NewLinks("", "devsque")
	l.SetBotUsername("devsquebot")

	assert.Equal(t, "https://t.me/devsquebot?start=demo", l.DeepLink("demo"))
	assert.Equal(t, "https://t.me/devsque/77", l.PostLink(77))
	assert.Equal(t, "https://t.me/devsque", l.JoinLink())
}

func TestPostButtons(t *testing.T) {
	rows := PostButtons(NewLinks("devsquebot", "devsque"), "demo", "https://youtube.com/@devsque", "https://youtu.be/x")
	require.Len(t, rows, 2)
	assert.Equal(t, "https://t.me/devsquebot?start=demo", rows[0][0].URL)
	assert.Equal(t, SubscribeButton, rows[1][0].Text)
	assert.Equal(t, "https://youtu.be/x", rows[1][1].URL)
}

func TestPublishAndRetract(t *testing.T) {
	bot := teletest.New()
	bot.ChatID = -100777
	p := NewPublisher(bot, helpers.ChatRef("@devsque"))

	markup := keyboard.InlineButtonsRows(PostButtons(NewLinks("b", "devsque"), "demo", "https://s", "https://w")...)
	ref, err := p.Publish(context.Background(), Post{ThumbnailRef: "PHOTO", Caption: "My demo", Markup: markup})
	require.NoError(t, err)
	assert.Equal(t, int64(-100777), ref.ChatID)

	sent, ok := bot.Last("@devsque")
	require.True(t, ok)
	assert.Equal(t, "photo", sent.Kind)
	assert.Equal(t, "PHOTO", sent.FileRef)
	assert.Equal(t, "My demo", sent.Caption)
	assert.Equal(t, sent.ID, ref.MessageID)
	assert.Equal(t, [][]string{{SourceCodeButton}, {SubscribeButton, WatchButton}}, sent.Buttons())

	require.NoError(t, p.Retract(context.Background(), ref))
	assert.Equal(t, []int{ref.MessageID}, bot.Deleted())
}

func TestPublishFailure(t *testing.T) {
	bot := teletest.New()
	bot.FailSend["@devsque"] = teletest.ErrSendFailed
	p := NewPublisher(bot, helpers.ChatRef("@devsque"))

	_, err := p.Publish(context.Background(), Post{ThumbnailRef: "PHOTO"})
	assert.ErrorIs(t, err, teletest.ErrSendFailed)
}
