package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muratoffalex/relaybot/internal/telegram"
)

// ErrTransport marks updates that carry nothing the dispatcher can act on.
var ErrTransport = errors.New("unsupported update")

// Update is the transport-independent view of one inbound message.
type Update struct {
	ConversationID int64
	MessageID      int
	Text           string
	IsCommand      bool
	ReplyToText    string
}

// Reply is one outbound message. Options are offered as quick replies.
type Reply struct {
	Text    string
	Options []string
}

// FromTelegram extracts a text message from a Bot API update.
func FromTelegram(u telegram.Update) (Update, error) {
	msg := u.Message
	if msg == nil {
		return Update{}, fmt.Errorf("%w: update %d has no message", ErrTransport, u.UpdateID)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return Update{}, fmt.Errorf("%w: message %d has no text", ErrTransport, msg.MessageID)
	}

	update := Update{
		ConversationID: msg.Chat.ID,
		MessageID:      msg.MessageID,
		Text:           msg.Text,
		IsCommand:      msg.IsCommand(),
	}
	if reply := msg.ReplyToMessage; reply != nil {
		update.ReplyToText = reply.Text
	}
	return update, nil
}
