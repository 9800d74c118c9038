package telegram

import (
	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

type (
	Update     = tgbotapi.Update
	Chattable  = tgbotapi.Chattable
	BotCommand = tgbotapi.BotCommand

	ReplyKeyboardMarkup = tgbotapi.ReplyKeyboardMarkup
	KeyboardButton      = tgbotapi.KeyboardButton
)

// NewOneTimeKeyboard puts every option on its own row and hides the
// keyboard after the first press.
func NewOneTimeKeyboard(options ...string) *ReplyKeyboardMarkup {
	rows := make([][]KeyboardButton, 0, len(options))
	for _, option := range options {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(option)))
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	return &keyboard
}

type Message struct {
	MessageID int
	Chat      Chat
	Text      string
	From      User
	ReplyTo   *Message
	Command   string
}

type User struct {
	ID        int64
	FirstName string
	UserName  string
	IsBot     bool
}

type Chat struct {
	ID   int64
	Type string
}

type MessageConfig interface {
	ToChattable() tgbotapi.Chattable
}

type TextMessage struct {
	ChatID   int64
	Text     string
	ReplyTo  int
	Keyboard *ReplyKeyboardMarkup
}

func NewMessage(chatID int64, text string, replyTo int) TextMessage {
	return TextMessage{
		ChatID:  chatID,
		Text:    text,
		ReplyTo: replyTo,
	}
}

func (m TextMessage) ToChattable() tgbotapi.Chattable {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyParameters.MessageID = m.ReplyTo
	if m.Keyboard != nil {
		msg.ReplyMarkup = *m.Keyboard
	}
	return msg
}

type WebhookConfig struct {
	URL                string
	DropPendingUpdates bool
}

func (c WebhookConfig) ToChattable() (tgbotapi.Chattable, error) {
	wh, err := tgbotapi.NewWebhook(c.URL)
	if err != nil {
		return nil, err
	}
	wh.DropPendingUpdates = c.DropPendingUpdates
	return wh, nil
}

type UpdateConfig struct {
	Offset  int
	Limit   int
	Timeout int
}

type ChatAction string

const (
	ActionTyping ChatAction = "typing"
)

type Client interface {
	Send(msg MessageConfig) (*Message, error)
	SendWithRetry(msg MessageConfig, maxRetryCount int) (*Message, error)
	Request(message MessageConfig) (*tgbotapi.APIResponse, error)
	SendChatAction(chatID int64, action ChatAction) error
	SetWebhook(config WebhookConfig) error
	DeleteWebhook(dropPending bool) error
	SetCommands(commands []BotCommand) error
	GetUpdatesChan(config UpdateConfig) <-chan tgbotapi.Update
	StopReceivingUpdates()
	NewUpdate(offset, timeout, limit int) UpdateConfig
	Self() User
}
