// Package publish drives the administrator's publishing conversation:
// archive, thumbnail, description, then confirm or cancel.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/devsque/codegate/app/channel"
	"github.com/devsque/codegate/app/projects"
	"github.com/devsque/codegate/core/logger"
	"github.com/devsque/codegate/core/telegram/helpers"
	"github.com/devsque/codegate/core/telegram/keyboard"
	"github.com/devsque/codegate/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Publisher posts to the distribution channel.
type Publisher interface {
	Publish(ctx context.Context, post channel.Post) (channel.PostRef, error)
	Retract(ctx context.Context, ref channel.PostRef) error
}

// Options configures a Controller.
type Options struct {
	AdminID      int64
	SubscribeURL string

	Sessions  *state.Store[Draft]
	Store     projects.Store
	Publisher Publisher
	Links     *channel.Links
	Sender    helpers.Sender

	// NewID issues draft ids; defaults to random UUIDs.
	NewID func() string
}

// Controller owns the publish sessions. Transitions are serialized so a
// repeated button press cannot publish twice.
type Controller struct {
	mu sync.Mutex

	adminID      int64
	subscribeURL string
	sessions     *state.Store[Draft]
	store        projects.Store
	publisher    Publisher
	links        *channel.Links
	sender       helpers.Sender
	newID        func() string
}

// NewController builds a controller from opts.
func NewController(opts Options) *Controller {
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = state.NewStore[Draft](0)
	}
	return &Controller{
		adminID:      opts.AdminID,
		subscribeURL: opts.SubscribeURL,
		sessions:     sessions,
		store:        opts.Store,
		publisher:    opts.Publisher,
		links:        opts.Links,
		sender:       opts.Sender,
		newID:        newID,
	}
}

// InProgress reports whether the user has an open publish session.
func (c *Controller) InProgress(userID int64) bool {
	return userID == c.adminID && c.sessions.InProgress(userID)
}

// State returns the session state of the user.
func (c *Controller) State(userID int64) state.State {
	return c.sessions.GetState(userID)
}

// Start handles "/publish payload | watchUrl".
func (c *Controller) Start(ctx context.Context, userID, chatID int64, args string) error {
	if !c.isAdmin(ctx, userID, "start") {
		return ErrIgnored
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.sessions.Get(userID); ok {
		c.log(ctx, slog.LevelInfo, "publish.rejected", sess,
			slog.String("status", "skip"),
			slog.String("cause", "session_open"),
		)
		return c.reply(ctx, chatID, fmt.Sprintf(msgInProgress, sess.Data.Payload), nil)
	}

	payload, watchURL, err := ParseCommand(args)
	if err != nil {
		logger.Info(ctx, logger.CompPublish, "publish.rejected",
			slog.String("status", "skip"),
			slog.String("cause", "malformed"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return c.reply(ctx, chatID, msgUsage, nil)
	}

	_, err = c.store.Get(ctx, payload)
	switch {
	case err == nil:
		logger.Info(ctx, logger.CompPublish, "publish.rejected",
			slog.String("status", "skip"),
			slog.String("cause", "already_exists"),
			slog.String("payload", payload),
		)
		return c.reply(ctx, chatID, msgAlreadyExists, nil)
	case !errors.Is(err, projects.ErrNotFound):
		// the insert on confirm still rejects duplicates atomically
		logger.Warn(ctx, logger.CompStore, "store.get",
			slog.String("status", "fail"),
			slog.String("payload", payload),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}

	draft := Draft{ID: c.newID(), Payload: payload, WatchURL: watchURL}
	c.sessions.Put(userID, StateAwaitingArchive, draft)
	c.log(ctx, slog.LevelInfo, "publish.started", state.Session[Draft]{State: StateAwaitingArchive, Data: draft},
		slog.String("status", "ok"),
	)
	return c.reply(ctx, chatID, msgSendArchive, nil)
}

// Archive stores the uploaded ZIP.
func (c *Controller) Archive(ctx context.Context, userID, chatID int64, doc *tele.Document) error {
	if !c.isAdmin(ctx, userID, "document") {
		return ErrIgnored
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.expect(ctx, userID, StateAwaitingArchive, "document")
	if !ok || doc == nil || doc.FileID == "" {
		return ErrIgnored
	}
	sess.Data.FileRef = doc.FileID
	sess.Data.FileName = doc.FileName
	return c.advance(ctx, userID, chatID, sess.Data, StateAwaitingThumbnail, msgSendThumbnail)
}

// Thumbnail stores the uploaded image. Telegram hands over the largest size.
func (c *Controller) Thumbnail(ctx context.Context, userID, chatID int64, photo *tele.Photo) error {
	if !c.isAdmin(ctx, userID, "photo") {
		return ErrIgnored
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.expect(ctx, userID, StateAwaitingThumbnail, "photo")
	if !ok || photo == nil || photo.FileID == "" {
		return ErrIgnored
	}
	sess.Data.ThumbnailRef = photo.FileID
	return c.advance(ctx, userID, chatID, sess.Data, StateAwaitingDescription, msgSendDescription)
}

// Describe stores the caption and shows the preview with Publish and Cancel buttons.
func (c *Controller) Describe(ctx context.Context, userID, chatID int64, text string) error {
	if !c.isAdmin(ctx, userID, "text") {
		return ErrIgnored
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.expect(ctx, userID, StateAwaitingDescription, "text")
	if !ok || text == "" || text[0] == '/' {
		return ErrIgnored
	}
	if n := utf8.RuneCountInString(text); n > MaxDescription {
		return c.reply(ctx, chatID, fmt.Sprintf(msgDescriptionLong, n, MaxDescription), nil)
	}
	draft := sess.Data
	draft.Description = text

	preview := &tele.Photo{File: tele.File{FileID: draft.ThumbnailRef}, Caption: draft.Description}
	markup := keyboard.Concat(c.postMarkup(draft), keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		keyboard.Action(publishButton, CallbackConfirm, draft.ID),
		keyboard.Action(cancelButton, CallbackCancel, draft.ID),
	}))
	if _, err := helpers.Send(ctx, c.sender, "publish.preview", tele.ChatID(chatID), preview, markup); err != nil {
		return fmt.Errorf("publish: preview: %w", err)
	}

	c.sessions.Put(userID, StateAwaitingConfirmation, draft)
	c.log(ctx, slog.LevelInfo, "publish.transition", state.Session[Draft]{State: StateAwaitingConfirmation, Data: draft},
		slog.String("status", "ok"),
		slog.String("input", "text"),
	)
	return nil
}

// Confirm publishes the draft identified by draftID to the channel and records it.
//
// A failed channel post keeps the session so the button can be pressed again.
// When the record cannot be saved the post is retracted: on a duplicate payload
// the session is dropped, on a store error it is kept for another attempt.
func (c *Controller) Confirm(ctx context.Context, userID, chatID int64, draftID string) error {
	if !c.isAdmin(ctx, userID, "confirm") {
		return ErrIgnored
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.expect(ctx, userID, StateAwaitingConfirmation, "confirm")
	if !ok || sess.Data.ID != draftID {
		if ok {
			c.log(ctx, slog.LevelDebug, "publish.ignored", sess, slog.String("cause", "stale_draft"))
		}
		return ErrIgnored
	}
	draft := sess.Data

	ref, err := c.publisher.Publish(ctx, channel.Post{
		ThumbnailRef: draft.ThumbnailRef,
		Caption:      draft.Description,
		Markup:       c.postMarkup(draft),
	})
	if err != nil {
		c.log(ctx, slog.LevelError, "publish.failed", sess,
			slog.String("status", "fail"),
			slog.String("cause", "channel"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		if rerr := c.reply(ctx, chatID, msgPostFailed, nil); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}

	err = c.store.Insert(ctx, projects.Record{
		Payload:       draft.Payload,
		FileRef:       draft.FileRef,
		WatchURL:      draft.WatchURL,
		ChannelPostID: ref.MessageID,
	})
	switch {
	case errors.Is(err, projects.ErrAlreadyExists):
		c.retract(ctx, ref)
		c.sessions.Clear(userID)
		c.log(ctx, slog.LevelWarn, "publish.failed", sess,
			slog.String("status", "fail"),
			slog.String("cause", "already_exists"),
			slog.Int("post_id", ref.MessageID),
		)
		return c.reply(ctx, chatID, msgAlreadyExists, nil)
	case err != nil:
		c.retract(ctx, ref)
		c.log(ctx, slog.LevelError, "publish.failed", sess,
			slog.String("status", "fail"),
			slog.String("cause", "store"),
			slog.Int("post_id", ref.MessageID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		if rerr := c.reply(ctx, chatID, msgSaveFailed, nil); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}

	c.sessions.Clear(userID)
	c.log(ctx, slog.LevelInfo, "publish.completed", sess,
		slog.String("status", "ok"),
		slog.Int("post_id", ref.MessageID),
	)
	return c.reply(ctx, chatID, msgPublished, nil)
}

// Discard handles the Cancel button of the preview identified by draftID.
func (c *Controller) Discard(ctx context.Context, userID, chatID int64, draftID string) error {
	if !c.isAdmin(ctx, userID, "cancel") {
		return ErrIgnored
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.expect(ctx, userID, StateAwaitingConfirmation, "cancel")
	if !ok || sess.Data.ID != draftID {
		return ErrIgnored
	}
	c.sessions.Clear(userID)
	c.log(ctx, slog.LevelInfo, "publish.cancelled", sess, slog.String("status", "cancelled"))
	return c.reply(ctx, chatID, msgCancelled, nil)
}

// Abort handles /cancel from any state.
func (c *Controller) Abort(ctx context.Context, userID, chatID int64) error {
	if !c.isAdmin(ctx, userID, "abort") {
		return ErrIgnored
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions.Get(userID)
	if !ok {
		return c.reply(ctx, chatID, msgNothingToCancel, nil)
	}
	c.sessions.Clear(userID)
	c.log(ctx, slog.LevelInfo, "publish.cancelled", sess, slog.String("status", "cancelled"))
	return c.reply(ctx, chatID, msgCancelled, nil)
}

// ListProjects replies with links to every published post, newest first.
func (c *Controller) ListProjects(ctx context.Context, userID, chatID int64) error {
	if !c.isAdmin(ctx, userID, "projects") {
		return ErrIgnored
	}
	list, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("publish: list projects: %w", err)
	}
	logger.Debug(ctx, logger.CompPublish, "publish.list", slog.Int("count", len(list)))
	if len(list) == 0 {
		return c.reply(ctx, chatID, msgNoProjects, nil)
	}
	buttons := make([]keyboard.InlineBtn, 0, len(list))
	for _, r := range list {
		buttons = append(buttons, keyboard.Link(r.Payload, c.links.PostLink(r.ChannelPostID)))
	}
	return c.reply(ctx, chatID, msgProjectsHeader, keyboard.InlineButtons(buttons))
}

// ExpireIdle drops sessions that outlived the idle timeout and notifies their owners.
// It returns the number of expired sessions.
func (c *Controller) ExpireIdle(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	expired := c.sessions.Sweep()
	for _, e := range expired {
		c.log(ctx, slog.LevelInfo, "publish.expired", e.Session, slog.String("status", "cancelled"))
		// private chat id equals user id
		_ = c.reply(ctx, e.UserID, msgExpired, nil)
	}
	return len(expired)
}

func (c *Controller) isAdmin(ctx context.Context, userID int64, input string) bool {
	if userID == c.adminID {
		return true
	}
	logger.Debug(ctx, logger.CompPublish, "publish.ignored",
		slog.String("status", "skip"),
		slog.String("outcome", "ignored"),
		slog.String("cause", "not_admin"),
		slog.String("input", input),
	)
	return false
}

// expect returns the live session when it is in want; otherwise the input is logged as ignored.
func (c *Controller) expect(ctx context.Context, userID int64, want state.State, input string) (state.Session[Draft], bool) {
	sess, ok := c.sessions.Get(userID)
	if ok && sess.State == want {
		return sess, true
	}
	c.log(ctx, slog.LevelInfo, "publish.ignored", sess,
		slog.String("status", "skip"),
		slog.String("outcome", "ignored"),
		slog.String("input", input),
	)
	return sess, false
}

func (c *Controller) advance(ctx context.Context, userID, chatID int64, draft Draft, next state.State, prompt string) error {
	c.sessions.Put(userID, next, draft)
	c.log(ctx, slog.LevelInfo, "publish.transition", state.Session[Draft]{State: next, Data: draft},
		slog.String("status", "ok"),
	)
	return c.reply(ctx, chatID, prompt, nil)
}

func (c *Controller) postMarkup(d Draft) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(channel.PostButtons(c.links, d.Payload, c.subscribeURL, d.WatchURL)...)
}

func (c *Controller) retract(ctx context.Context, ref channel.PostRef) {
	// failure is logged by the publisher; the reply still tells the admin what happened
	_ = c.publisher.Retract(ctx, ref)
}

func (c *Controller) reply(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	return helpers.SendText(ctx, c.sender, "publish.reply", tele.ChatID(chatID), text, markup)
}

func (c *Controller) log(ctx context.Context, level slog.Level, event string, sess state.Session[Draft], attrs ...slog.Attr) {
	base := []slog.Attr{slog.String("state", string(sess.State))}
	if sess.Data.ID != "" {
		base = append(base,
			slog.String("session_id", sess.Data.ID),
			slog.String("payload", sess.Data.Payload),
		)
	}
	logger.Event(ctx, logger.CompPublish, level, event, append(base, attrs...)...)
}
