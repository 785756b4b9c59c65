package domain

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// Update is one inbound user action. Either Text or CallbackID is set.
type Update struct {
	ID           int64  `json:"id"`
	ChatID       int64  `json:"chat_id"`
	From         User   `json:"from"`
	Text         string `json:"text,omitempty"`
	CallbackID   string `json:"callback_id,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

func (u Update) IsCallback() bool {
	return u.CallbackID != ""
}

type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Reply is an outbound message. Menu renders as a persistent reply keyboard,
// Buttons as an inline keyboard; at most one of them should be set.
type Reply struct {
	Text    string     `json:"text"`
	Photo   string     `json:"photo,omitempty"`
	Menu    []string   `json:"menu,omitempty"`
	Buttons [][]Button `json:"buttons,omitempty"`
}
