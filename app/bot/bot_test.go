package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/devsque/codegate/app/config"
	"github.com/devsque/codegate/app/channel"
	"github.com/devsque/codegate/app/projects"
	"github.com/devsque/codegate/app/publish"
	"github.com/devsque/codegate/core/bootstrap"
	coreconfig "github.com/devsque/codegate/core/config"
	"github.com/devsque/codegate/core/telegram/router"
	"github.com/devsque/codegate/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

const (
	adminID int64 = 42
	userID  int64 = 7
)

type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Message() *tele.Message { return f.update.Message }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, val any)  { f.store[key] = val }

func (f *fakeContext) Sender() *tele.User {
	switch {
	case f.update.Message != nil:
		return f.update.Message.Sender
	case f.update.Callback != nil:
		return f.update.Callback.Sender
	}
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	switch {
	case f.update.Message != nil:
		return f.update.Message.Chat
	case f.update.Callback != nil && f.update.Callback.Message != nil:
		return f.update.Callback.Message.Chat
	}
	return nil
}

func private(id int64) *tele.Chat { return &tele.Chat{ID: id, Type: tele.ChatPrivate} }

func message(from int64, msg tele.Message) *fakeContext {
	msg.Sender = &tele.User{ID: from}
	msg.Chat = private(from)
	return &fakeContext{update: tele.Update{ID: 1, Message: &msg}, store: map[string]any{}}
}

func command(from int64, payload string) *fakeContext {
	return message(from, tele.Message{Text: "/cmd " + payload, Payload: payload})
}

func press(from int64, unique, data string) *fakeContext {
	cb := &tele.Callback{
		Sender:  &tele.User{ID: from},
		Message: &tele.Message{Chat: private(from)},
		Unique:  unique,
		Data:    data,
	}
	return &fakeContext{update: tele.Update{ID: 2, Callback: cb}, store: map[string]any{}}
}

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		Config: coreconfig.Config{
			Telegram: coreconfig.TelegramConfig{Token: "1:x", AdminID: adminID, BotUsername: "codegatebot"},
		},
		Channel: appconfig.ChannelConfig{ID: "@devsque", Name: "devsque", SubscribeURL: "https://youtube.com/@devsque"},
		Store:   appconfig.StoreConfig{Driver: appconfig.DriverMemory},
		Session: appconfig.SessionConfig{SweepSchedule: "@every 1m"},
	}
}

func newApp(t *testing.T) (*App, *teletest.Bot, projects.Store) {
	t.Helper()
	store := projects.NewMemoryStore()
	app, err := New(testConfig(), store)
	require.NoError(t, err)
	api := teletest.New()
	routes := app.Bind(api)
	// 4 commands, the callback route and text/document/photo
	require.Len(t, routes, 8)
	return app, api, store
}

func run(t *testing.T, app *App, name string, c tele.Context) error {
	t.Helper()
	cmd, ok := app.Registry().Commands()[name]
	require.True(t, ok, "command %s", name)
	return cmd.Handler(c)
}

func TestRegistryExposesOnlyStart(t *testing.T) {
	app, _, _ := newApp(t)
	visible := app.Registry().ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "start", visible[0].Text)

	for _, name := range []string{"/publish", "/cancel", "/projects"} {
		cmd := app.Registry().Commands()[name]
		assert.True(t, cmd.AdminOnly, name)
		assert.True(t, cmd.Hidden, name)
	}
	assert.ElementsMatch(t, []string{publish.CallbackConfirm, publish.CallbackCancel}, app.Registry().ListCallbacks())
}

func TestPublishThenDeliver(t *testing.T) {
	app, api, store := newApp(t)
	ctx := context.Background()

	require.NoError(t, run(t, app, "/publish", command(adminID, "demo | https://youtu.be/demo")))
	require.True(t, app.InProgress(adminID))

	require.NoError(t, app.ManagerHandler(message(adminID, tele.Message{
		Document: &tele.Document{File: tele.File{FileID: "zip-1"}, FileName: "demo.zip"},
	})))
	require.NoError(t, app.ManagerHandler(message(adminID, tele.Message{
		Photo: &tele.Photo{File: tele.File{FileID: "thumb-1"}},
	})))
	require.NoError(t, app.ManagerHandler(message(adminID, tele.Message{Text: "Demo project"})))

	preview, ok := api.Last("42")
	require.True(t, ok)
	require.Equal(t, "photo", preview.Kind)
	confirm, ok := preview.Button("✅ Publish")
	require.True(t, ok)

	require.NoError(t, callback(t, app, publish.CallbackConfirm)(press(adminID, confirm.Unique, confirm.Data)))
	assert.False(t, app.InProgress(adminID))

	post, ok := api.Last("@devsque")
	require.True(t, ok)
	assert.Equal(t, "thumb-1", post.FileRef)
	assert.Equal(t, [][]string{{channel.SourceCodeButton}, {channel.SubscribeButton, channel.WatchButton}}, post.Buttons())

	rec, err := store.Get(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "zip-1", rec.FileRef)
	assert.Equal(t, post.ID, rec.ChannelPostID)

	// not a member yet
	require.NoError(t, run(t, app, "/start", command(userID, "demo")))
	gated, ok := api.Last("7")
	require.True(t, ok)
	assert.Equal(t, "text", gated.Kind)
	retry, ok := gated.Button(channel.RetryButton)
	require.True(t, ok)
	assert.Equal(t, "https://t.me/codegatebot?start=demo", retry.URL)

	api.Members[userID] = tele.Member
	require.NoError(t, run(t, app, "/start", command(userID, "demo")))
	doc, ok := api.Last("7")
	require.True(t, ok)
	assert.Equal(t, "document", doc.Kind)
	assert.Equal(t, "zip-1", doc.FileRef)
}

func callback(t *testing.T, app *App, key string) tele.HandlerFunc {
	t.Helper()
	h, ok := app.Registry().GetCallback(key)
	require.True(t, ok, "callback %s", key)
	return h
}

func TestNonAdminInputIsIgnored(t *testing.T) {
	app, api, _ := newApp(t)

	err := run(t, app, "/publish", command(userID, "demo | https://youtu.be/demo"))
	assert.ErrorIs(t, err, router.Ignored)
	assert.False(t, app.InProgress(userID))

	err = app.ManagerHandler(message(userID, tele.Message{Text: "hello"}))
	assert.ErrorIs(t, err, router.Ignored)
	assert.Empty(t, api.Sent())
}

func TestCancelCommand(t *testing.T) {
	app, api, _ := newApp(t)

	require.NoError(t, run(t, app, "/cancel", command(adminID, "")))
	last, _ := api.Last("42")
	assert.Equal(t, "Nothing to cancel.", last.Text)

	require.NoError(t, run(t, app, "/publish", command(adminID, "demo | https://youtu.be/demo")))
	require.NoError(t, run(t, app, "/cancel", command(adminID, "")))
	last, _ = api.Last("42")
	assert.Equal(t, "❌ Publishing cancelled.", last.Text)
	assert.False(t, app.InProgress(adminID))
}

func TestUnexpectedInputKeepsSession(t *testing.T) {
	app, _, _ := newApp(t)
	require.NoError(t, run(t, app, "/publish", command(adminID, "demo | https://youtu.be/demo")))

	// a photo while the archive is expected
	err := app.ManagerHandler(message(adminID, tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "p"}}}))
	assert.ErrorIs(t, err, router.Ignored)
	assert.Equal(t, publish.StateAwaitingArchive, app.publish.State(adminID))
}

func TestSlashTextIsNotADescription(t *testing.T) {
	app, _, _ := newApp(t)
	require.NoError(t, run(t, app, "/publish", command(adminID, "demo | https://youtu.be/demo")))
	require.NoError(t, app.ManagerHandler(message(adminID, tele.Message{
		Document: &tele.Document{File: tele.File{FileID: "zip-1"}, FileName: "demo.zip"},
	})))
	require.NoError(t, app.ManagerHandler(message(adminID, tele.Message{
		Photo: &tele.Photo{File: tele.File{FileID: "thumb-1"}},
	})))

	err := app.ManagerHandler(message(adminID, tele.Message{Text: "/help"}))
	assert.ErrorIs(t, err, router.Ignored)
	assert.Equal(t, publish.StateAwaitingDescription, app.publish.State(adminID))
}

func TestStartStopLifecycle(t *testing.T) {
	app, _, _ := newApp(t)
	closed := false
	app.closer = func() error { closed = true; return nil }

	require.NoError(t, app.Start(context.Background()))
	require.NotNil(t, app.sweeper)
	require.NoError(t, app.Stop(context.Background()))
	assert.Nil(t, app.sweeper)
	assert.True(t, closed)
}

func TestStartRequiresBind(t *testing.T) {
	app, err := New(testConfig(), projects.NewMemoryStore())
	require.NoError(t, err)
	require.Error(t, app.Start(context.Background()))
}

func TestSweeperDisabledWithZeroTimeout(t *testing.T) {
	cfg := testConfig()
	zero := time.Duration(0)
	cfg.Session.IdleTimeout = &zero
	app, err := New(cfg, projects.NewMemoryStore())
	require.NoError(t, err)
	app.Bind(teletest.New())

	require.NoError(t, app.Start(context.Background()))
	assert.Nil(t, app.sweeper)
	require.NoError(t, app.Stop(context.Background()))
}

func TestStoreFor(t *testing.T) {
	_, err := StoreFor(nil)
	require.Error(t, err)

	store, err := StoreFor(&bootstrap.Result{})
	require.NoError(t, err)
	assert.IsType(t, &projects.MemoryStore{}, store)
}
