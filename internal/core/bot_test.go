package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/relaybot/internal/commands/start"
	"github.com/muratoffalex/relaybot/internal/telegram"
)

func newTestBot(t *testing.T) (*Bot, *mockTelegramClient, *fixture) {
	t.Helper()
	f := newFixture(t)
	tg := &mockTelegramClient{}
	f.dispatcher.sender = NewTelegramSender(tg)
	return NewBot(tg, f.router, f.dispatcher, f.log), tg, f
}

func messageUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 9,
			Chat:      tgbotapi.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func TestBot_HandleUpdateSendsReply(t *testing.T) {
	bot, tg, _ := newTestBot(t)
	tg.On("SendWithRetry", mock.MatchedBy(func(msg telegram.MessageConfig) bool {
		text, ok := msg.(telegram.TextMessage)
		return ok && text.ChatID == 42 && text.ReplyTo == 9 &&
			text.Text == "✅ Switched to: openai/gpt-3.5-turbo" && text.Keyboard == nil
	}), sendRetries).Return(&telegram.Message{}, nil).Once()

	err := bot.HandleUpdate(context.Background(), messageUpdate(42, "openai/gpt-3.5-turbo"))
	require.NoError(t, err)
	tg.AssertExpectations(t)
}

func TestBot_ModelListingHasKeyboard(t *testing.T) {
	bot, tg, _ := newTestBot(t)
	tg.On("SendWithRetry", mock.MatchedBy(func(msg telegram.MessageConfig) bool {
		text, ok := msg.(telegram.TextMessage)
		return ok && text.Keyboard != nil && len(text.Keyboard.Keyboard) == 3 && text.Keyboard.OneTimeKeyboard
	}), sendRetries).Return(&telegram.Message{}, nil).Once()

	require.NoError(t, bot.HandleUpdate(context.Background(), messageUpdate(42, "/model")))
	tg.AssertExpectations(t)
}

func TestBot_TypingAction(t *testing.T) {
	bot, tg, f := newTestBot(t)
	f.mockCompleter(t).On("Complete", mock.Anything, mock.Anything).Return("answer", nil)
	tg.On("SendChatAction", int64(42), telegram.ActionTyping).Return(errors.New("ignored")).Once()
	tg.On("SendWithRetry", mock.Anything, sendRetries).Return(&telegram.Message{}, nil).Once()

	require.NoError(t, bot.HandleUpdate(context.Background(), messageUpdate(42, "Hi")))
	tg.AssertExpectations(t)
}

func TestBot_DropsUpdatesWithoutText(t *testing.T) {
	bot, tg, f := newTestBot(t)

	err := bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 7})
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, f.log.HasEntry("debug", "Dropping update"))
	tg.AssertNotCalled(t, "SendWithRetry", mock.Anything, mock.Anything)
}

func TestBot_RegisterCommand(t *testing.T) {
	bot, _, f := newTestBot(t)

	bot.RegisterCommand(nil)
	assert.True(t, f.log.HasEntry("error", "Attempting to register nil command"))

	bot.RegisterCommand(start.New(f.container))
	assert.True(t, f.log.HasEntry("error", "Failed to register command"))
	assert.Len(t, bot.GetCommands(), 4)
}

func TestBot_SyncCommands(t *testing.T) {
	bot, tg, _ := newTestBot(t)
	tg.On("SetCommands", mock.MatchedBy(func(cmds []telegram.BotCommand) bool {
		if len(cmds) != 4 {
			return false
		}
		return cmds[0].Command == "about" && cmds[0].Description == "About this bot" &&
			cmds[2].Command == "model" && cmds[2].Description == "Change AI model"
	})).Return(nil).Once()

	require.NoError(t, bot.SyncCommands())
	tg.AssertExpectations(t)
}

func TestBot_RegisterWebhook(t *testing.T) {
	bot, tg, _ := newTestBot(t)
	tg.On("SetWebhook", telegram.WebhookConfig{URL: "https://example.com/webhook"}).Return(nil).Once()

	require.NoError(t, bot.RegisterWebhook("https://example.com/webhook"))
	assert.Error(t, bot.RegisterWebhook(""))
	tg.AssertExpectations(t)
}

func TestBot_StartPolling(t *testing.T) {
	bot, tg, _ := newTestBot(t)
	updates := make(chan tgbotapi.Update, 1)
	sent := make(chan struct{})

	tg.On("DeleteWebhook", false).Return(nil).Once()
	tg.On("GetUpdatesChan", mock.Anything).Return((<-chan tgbotapi.Update)(updates)).Once()
	tg.On("SendWithRetry", mock.Anything, sendRetries).
		Run(func(args mock.Arguments) { close(sent) }).
		Return(&telegram.Message{}, nil).Once()
	tg.On("StopReceivingUpdates").Return().Once()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- bot.Start(ctx) }()

	updates <- messageUpdate(42, "/start")
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("reply was not sent")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	tg.AssertExpectations(t)
}

func TestBot_StartKeepsChatOrder(t *testing.T) {
	bot, tg, _ := newTestBot(t)
	updates := make(chan tgbotapi.Update, 8)

	var (
		mu   sync.Mutex
		sent = map[int64][]string{}
	)
	done := make(chan struct{})
	tg.On("DeleteWebhook", false).Return(nil).Once()
	tg.On("GetUpdatesChan", mock.Anything).Return((<-chan tgbotapi.Update)(updates)).Once()
	tg.On("SendWithRetry", mock.Anything, sendRetries).
		Run(func(args mock.Arguments) {
			msg := args.Get(0).(telegram.TextMessage)
			mu.Lock()
			defer mu.Unlock()
			sent[msg.ChatID] = append(sent[msg.ChatID], msg.Text)
			if len(sent[42])+len(sent[7]) == 4 {
				close(done)
			}
		}).
		Return(&telegram.Message{}, nil).Times(4)
	tg.On("StopReceivingUpdates").Return().Once()

	updates <- messageUpdate(42, "/model")
	updates <- messageUpdate(7, "/help")
	updates <- messageUpdate(42, "2")
	updates <- messageUpdate(42, "/model\n1")

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error)
	go func() { stopped <- bot.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replies were not sent")
	}
	cancel()
	require.NoError(t, <-stopped)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent[42], 3)
	assert.Contains(t, sent[42][0], "Current model:")
	assert.Equal(t, "✅ Switched to: openai/gpt-3.5-turbo", sent[42][1])
	assert.Equal(t, "✅ Switched to: deepseek/deepseek-v3-base:free", sent[42][2])
	assert.Len(t, sent[7], 1)
	assert.Empty(t, bot.pending)
}

func TestBot_StartFailsWhenWebhookCannotBeRemoved(t *testing.T) {
	bot, tg, _ := newTestBot(t)
	tg.On("DeleteWebhook", false).Return(errors.New("unauthorized")).Once()

	assert.ErrorContains(t, bot.Start(context.Background()), "unauthorized")
}
