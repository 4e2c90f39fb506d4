// Package teletest provides an in-memory stand-in for the Bot API calls the
// application makes, for use in tests.
package teletest

import (
	"errors"
	"strconv"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// ErrSendFailed is a convenience error for failing sends.
var ErrSendFailed = errors.New("teletest: send failed")

// Sent records a single outbound message.
type Sent struct {
	To      string
	Text    string
	FileRef string
	Caption string
	Kind    string
	Markup  *tele.ReplyMarkup
	ID      int
}

// Buttons flattens the inline keyboard of the message into rows of texts.
func (s Sent) Buttons() [][]string {
	if s.Markup == nil {
		return nil
	}
	out := make([][]string, 0, len(s.Markup.InlineKeyboard))
	for _, row := range s.Markup.InlineKeyboard {
		r := make([]string, 0, len(row))
		for _, b := range row {
			r = append(r, b.Text)
		}
		out = append(out, r)
	}
	return out
}

// Button returns the first inline button with the given text.
func (s Sent) Button(text string) (tele.InlineButton, bool) {
	if s.Markup == nil {
		return tele.InlineButton{}, false
	}
	for _, row := range s.Markup.InlineKeyboard {
		for _, b := range row {
			if b.Text == text {
				return b, true
			}
		}
	}
	return tele.InlineButton{}, false
}

// Bot implements Send, Delete and ChatMemberOf.
type Bot struct {
	mu      sync.Mutex
	sent    []Sent
	deleted []int
	nextID  int

	// FailSend makes sends to the listed recipients fail.
	FailSend map[string]error
	// FailDelete makes Delete fail.
	FailDelete error
	// Members maps user id to its status in any chat.
	Members map[int64]tele.MemberStatus
	// MemberErr makes ChatMemberOf fail.
	MemberErr error
	// ChatID is reported as the chat of messages sent to non-numeric recipients.
	ChatID int64
}

// New returns an empty fake bot.
func New() *Bot {
	return &Bot{
		FailSend: map[string]error{},
		Members:  map[int64]tele.MemberStatus{},
		nextID:   100,
		ChatID:   -1001,
	}
}

func (b *Bot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rcpt := to.Recipient()
	if err, ok := b.FailSend[rcpt]; ok {
		return nil, err
	}
	b.nextID++
	s := Sent{To: rcpt, ID: b.nextID, Markup: markupOf(opts)}
	switch v := what.(type) {
	case string:
		s.Kind, s.Text = "text", v
	case *tele.Photo:
		s.Kind, s.FileRef, s.Caption = "photo", v.FileID, v.Caption
	case *tele.Document:
		s.Kind, s.FileRef, s.Caption = "document", v.FileID, v.Caption
	default:
		s.Kind = "other"
	}
	b.sent = append(b.sent, s)

	chatID, err := strconv.ParseInt(rcpt, 10, 64)
	if err != nil {
		chatID = b.ChatID
	}
	return &tele.Message{ID: s.ID, Chat: &tele.Chat{ID: chatID}}, nil
}

func (b *Bot) Delete(msg tele.Editable) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDelete != nil {
		return b.FailDelete
	}
	id, _ := msg.MessageSig()
	n, _ := strconv.Atoi(id)
	b.deleted = append(b.deleted, n)
	return nil
}

func (b *Bot) ChatMemberOf(_, user tele.Recipient) (*tele.ChatMember, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.MemberErr != nil {
		return nil, b.MemberErr
	}
	id, _ := strconv.ParseInt(user.Recipient(), 10, 64)
	status, ok := b.Members[id]
	if !ok {
		status = tele.Left
	}
	return &tele.ChatMember{Role: status, User: &tele.User{ID: id}}, nil
}

// Sent returns a copy of all messages sent so far.
func (b *Bot) Sent() []Sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Sent(nil), b.sent...)
}

// SentTo returns messages sent to the recipient.
func (b *Bot) SentTo(rcpt string) []Sent {
	var out []Sent
	for _, s := range b.Sent() {
		if s.To == rcpt {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the most recent message sent to the recipient.
func (b *Bot) Last(rcpt string) (Sent, bool) {
	list := b.SentTo(rcpt)
	if len(list) == 0 {
		return Sent{}, false
	}
	return list[len(list)-1], true
}

// Deleted returns ids of deleted messages.
func (b *Bot) Deleted() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.deleted...)
}

func markupOf(opts []interface{}) *tele.ReplyMarkup {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return v.ReplyMarkup
			}
		}
	}
	return nil
}
