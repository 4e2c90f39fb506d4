// Package bot wires the publishing and delivery services into the Telegram runtime.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appconfig "github.com/devsque/codegate/app/config"
	"github.com/devsque/codegate/app/channel"
	"github.com/devsque/codegate/app/delivery"
	"github.com/devsque/codegate/app/membership"
	"github.com/devsque/codegate/app/projects"
	"github.com/devsque/codegate/app/publish"
	tg "github.com/devsque/codegate/core/telegram"
	"github.com/devsque/codegate/core/telegram/callbacks"
	"github.com/devsque/codegate/core/telegram/commands"
	tghelpers "github.com/devsque/codegate/core/telegram/helpers"
	"github.com/devsque/codegate/core/telegram/router"
	"github.com/devsque/codegate/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// API is the part of *tele.Bot the services call.
type API interface {
	channel.API
	membership.MemberLookup
}

// App owns the services of one bot process.
type App struct {
	cfg      *appconfig.Config
	store    projects.Store
	links    *channel.Links
	sessions *state.Store[publish.Draft]
	registry *tg.Registry

	publish  *publish.Controller
	delivery *delivery.Service
	sweeper  *publish.Sweeper

	// closer releases storage on shutdown.
	closer func() error
}

// New registers the bot commands and callbacks. Services are bound to the
// Bot API later, once the runtime has built the bot.
func New(cfg *appconfig.Config, store projects.Store) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	if store == nil {
		return nil, fmt.Errorf("bot: nil store")
	}
	a := &App{
		cfg:      cfg,
		store:    store,
		links:    channel.NewLinks(cfg.Telegram.BotUsername, cfg.Channel.Name),
		sessions: state.NewStore[publish.Draft](cfg.Session.Timeout()),
		registry: tg.NewRegistry(),
	}
	if err := a.register(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) register() error {
	cmds := map[string]commands.Command{
		"/start":    {Handler: a.handleStart, Description: "Get project source code"},
		"/publish":  {Handler: a.handlePublish, Description: "Publish a project", AdminOnly: true, Hidden: true},
		"/cancel":   {Handler: a.handleCancel, Description: "Cancel publishing", AdminOnly: true, Hidden: true},
		"/projects": {Handler: a.handleProjects, Description: "List published projects", AdminOnly: true, Hidden: true},
	}
	for name, cmd := range cmds {
		if err := a.registry.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	if err := a.registry.RegisterCallback(publish.CallbackConfirm, a.handleConfirm); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	if err := a.registry.RegisterCallback(publish.CallbackCancel, a.handleDiscard); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	return nil
}

// Registry exposes the command and callback registry.
func (a *App) Registry() *tg.Registry { return a.registry }

// Bind builds the services on top of api and returns the update routes.
func (a *App) Bind(api API) []tg.Route {
	channelRef := tghelpers.ChatRef(a.cfg.Channel.ID)
	a.publish = publish.NewController(publish.Options{
		AdminID:      a.cfg.Telegram.AdminID,
		SubscribeURL: a.cfg.Channel.SubscribeURL,
		Sessions:     a.sessions,
		Store:        a.store,
		Publisher:    channel.NewPublisher(api, channelRef),
		Links:        a.links,
		Sender:       api,
	})
	a.delivery = delivery.NewService(
		a.store,
		membership.NewGate(api, channelRef),
		a.links,
		api,
		a.cfg.Channel.SubscribeURL,
	)

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(a.registry))
	routes = append(routes, router.MessageRoutes(a, router.MessageOptions{})...)
	return routes
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(core, nil),
		Routes: func(rt tg.Runtime) []tg.Route {
			return a.Bind(rt.Bot)
		},
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			if a.links.BotUsername() == "" && rt.Bot != nil {
				a.links.SetBotUsername(rt.Bot.Me.Username)
			}
			return a.Start(ctx)
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			return a.Stop(ctx)
		},
	}, nil
}

// Start launches background jobs.
func (a *App) Start(ctx context.Context) error {
	if a.publish == nil {
		return fmt.Errorf("bot: services are not bound")
	}
	if a.cfg.Session.Timeout() <= 0 {
		return nil
	}
	sw, err := publish.StartSweeper(context.WithoutCancel(ctx), a.cfg.Session.SweepSchedule, a.publish)
	if err != nil {
		return err
	}
	a.sweeper = sw
	return nil
}

// Stop halts background jobs and releases storage.
func (a *App) Stop(context.Context) error {
	a.sweeper.Stop()
	a.sweeper = nil
	if a.closer != nil {
		return a.closer()
	}
	return nil
}

// InProgress implements router.FSM.
func (a *App) InProgress(userID int64) bool {
	return a.publish != nil && a.publish.InProgress(userID)
}

// ManagerHandler implements router.FSM by feeding the message to the
// publish session of its author.
func (a *App) ManagerHandler(c tele.Context) error {
	msg := c.Message()
	if msg == nil {
		return router.Ignored
	}
	ctx := tghelpers.WithHandler(c, "publish_step")
	userID, chatID := tghelpers.SenderID(c), chatOf(c)

	var err error
	switch {
	case msg.Document != nil:
		err = a.publish.Archive(ctx, userID, chatID, msg.Document)
	case msg.Photo != nil:
		err = a.publish.Thumbnail(ctx, userID, chatID, msg.Photo)
	case msg.Text != "" && !strings.HasPrefix(msg.Text, "/") && tghelpers.IsPrivate(c):
		err = a.publish.Describe(ctx, userID, chatID, msg.Text)
	default:
		err = publish.ErrIgnored
	}
	return outcome(err)
}

func (a *App) handleStart(c tele.Context) error {
	var payload string
	if msg := c.Message(); msg != nil {
		payload = strings.TrimSpace(msg.Payload)
	}
	ctx := tghelpers.WithHandler(c, "start")
	return a.delivery.Start(ctx, tghelpers.SenderID(c), chatOf(c), payload)
}

func (a *App) handlePublish(c tele.Context) error {
	var args string
	if msg := c.Message(); msg != nil {
		args = msg.Payload
	}
	ctx := tghelpers.WithHandler(c, "publish")
	return outcome(a.publish.Start(ctx, tghelpers.SenderID(c), chatOf(c), args))
}

func (a *App) handleCancel(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "cancel")
	return outcome(a.publish.Abort(ctx, tghelpers.SenderID(c), chatOf(c)))
}

func (a *App) handleProjects(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "projects")
	return outcome(a.publish.ListProjects(ctx, tghelpers.SenderID(c), chatOf(c)))
}

func (a *App) handleConfirm(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "publish_confirm")
	return outcome(a.publish.Confirm(ctx, tghelpers.SenderID(c), chatOf(c), callbacks.CallbackPayload(c)))
}

func (a *App) handleDiscard(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "publish_cancel")
	return outcome(a.publish.Discard(ctx, tghelpers.SenderID(c), chatOf(c), callbacks.CallbackPayload(c)))
}

// chatOf falls back to the sender id: admin flows run in private chats.
func chatOf(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return tghelpers.SenderID(c)
}

func outcome(err error) error {
	if errors.Is(err, publish.ErrIgnored) {
		return router.Ignored
	}
	return err
}
