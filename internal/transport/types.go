package transport

import "storefront/bot/internal/domain"

type tgUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgMessage struct {
	MessageID int64   `json:"message_id"`
	From      *tgUser `json:"from"`
	Chat      tgChat  `json:"chat"`
	Text      string  `json:"text"`
}

type tgCallbackQuery struct {
	ID      string     `json:"id"`
	From    tgUser     `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

type tgUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

func (u tgUpdate) toDomain() domain.Update {
	out := domain.Update{ID: u.UpdateID}

	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		out.From = domain.User{ID: cq.From.ID, Username: cq.From.Username}
		out.ChatID = cq.From.ID
		if cq.Message != nil {
			out.ChatID = cq.Message.Chat.ID
		}
		out.CallbackID = cq.ID
		out.CallbackData = cq.Data
	case u.Message != nil:
		out.ChatID = u.Message.Chat.ID
		if u.Message.From != nil {
			out.From = domain.User{ID: u.Message.From.ID, Username: u.Message.From.Username}
		}
		out.Text = u.Message.Text
	}

	return out
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

type keyboardButton struct {
	Text string `json:"text"`
}

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type markup struct {
	Keyboard       [][]keyboardButton       `json:"keyboard,omitempty"`
	ResizeKeyboard bool                     `json:"resize_keyboard,omitempty"`
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard,omitempty"`
}

type sendMessageRequest struct {
	ChatID      int64   `json:"chat_id"`
	Text        string  `json:"text"`
	ReplyMarkup *markup `json:"reply_markup,omitempty"`
}

type sendPhotoRequest struct {
	ChatID      int64   `json:"chat_id"`
	Photo       string  `json:"photo"`
	Caption     string  `json:"caption,omitempty"`
	ReplyMarkup *markup `json:"reply_markup,omitempty"`
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

func replyMarkup(reply domain.Reply) *markup {
	switch {
	case len(reply.Buttons) > 0:
		rows := make([][]inlineKeyboardButton, 0, len(reply.Buttons))
		for _, row := range reply.Buttons {
			buttons := make([]inlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, inlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
			}
			rows = append(rows, buttons)
		}
		return &markup{InlineKeyboard: rows}
	case len(reply.Menu) > 0:
		rows := make([][]keyboardButton, 0, len(reply.Menu))
		for _, item := range reply.Menu {
			rows = append(rows, []keyboardButton{{Text: item}})
		}
		return &markup{Keyboard: rows, ResizeKeyboard: true}
	default:
		return nil
	}
}
