package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a convenience wrapper for inline button properties.
// A button with URL set opens a link; otherwise it sends callback Unique|Data.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
	URL    string
}

// Link returns a URL button.
func Link(text, url string) InlineBtn {
	return InlineBtn{Text: text, URL: url}
}

// Action returns a callback button.
func Action(text, unique, data string) InlineBtn {
	return InlineBtn{Text: text, Unique: unique, Data: data}
}

// InlineButtons builds an inline keyboard where each provided button is placed on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return InlineButtonsRows(rows...)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
// Empty rows are skipped.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			if btn.URL != "" {
				r[j] = *markup.URL(btn.Text, btn.URL).Inline()
				continue
			}
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup
}

// Concat appends the inline rows of extra below base and returns a new markup.
func Concat(base *tele.ReplyMarkup, extra ...*tele.ReplyMarkup) *tele.ReplyMarkup {
	out := &tele.ReplyMarkup{}
	if base != nil {
		out.InlineKeyboard = append(out.InlineKeyboard, base.InlineKeyboard...)
	}
	for _, m := range extra {
		if m != nil {
			out.InlineKeyboard = append(out.InlineKeyboard, m.InlineKeyboard...)
		}
	}
	return out
}
