package telegram

type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message"`
	EditedMessage *Message `json:"edited_message"`
}

// IncomingMessage возвращает сообщение или его отредактированную версию.
func (u Update) IncomingMessage() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.EditedMessage
}

type Message struct {
	MessageID int64           `json:"message_id"`
	Text      string          `json:"text"`
	Chat      Chat            `json:"chat"`
	From      *User           `json:"from"`
	Entities  []MessageEntity `json:"entities"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// MessageEntity разметка фрагмента текста (команды, ссылки, упоминания).
// Offset и Length в UTF-16 code units.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type SendMessageResponse struct {
	Ok          bool    `json:"ok"`
	Result      Message `json:"result"`
	Description string  `json:"description"`
}
