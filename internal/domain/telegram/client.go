package telegram

import "gopkg.in/telebot.v3"

// Client sends text to a Telegram chat. Chat ids may be private users or groups.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
