package core

import (
	"context"

	"github.com/muratoffalex/relaybot/internal/telegram"
)

const sendRetries = 3

type telegramSender struct {
	tg telegram.Client
}

func NewTelegramSender(tg telegram.Client) Sender {
	return &telegramSender{tg: tg}
}

func (s *telegramSender) SendReply(ctx context.Context, conversationID int64, replyTo int, reply Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := telegram.NewMessage(conversationID, reply.Text, replyTo)
	if len(reply.Options) > 0 {
		msg.Keyboard = telegram.NewOneTimeKeyboard(reply.Options...)
	}
	_, err := s.tg.SendWithRetry(msg, sendRetries)
	return err
}

func (s *telegramSender) SendTyping(ctx context.Context, conversationID int64) error {
	return s.tg.SendChatAction(conversationID, telegram.ActionTyping)
}
