package core

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/muratoffalex/relaybot/internal/commands"
	"github.com/muratoffalex/relaybot/internal/logger"
	"github.com/muratoffalex/relaybot/internal/telegram"
)

const pollTimeout = 60

type Bot struct {
	router     *commands.Router
	dispatcher *Dispatcher
	logger     logger.Logger
	tg         telegram.Client
	wg         sync.WaitGroup

	mu sync.Mutex
	// pending holds queued updates per chat. A key is present while a
	// worker for that chat is running.
	pending map[int64][]telegram.Update
}

func NewBot(
	tg telegram.Client,
	router *commands.Router,
	dispatcher *Dispatcher,
	logger logger.Logger,
) *Bot {
	return &Bot{
		router:     router,
		dispatcher: dispatcher,
		tg:         tg,
		logger:     logger,
		pending:    make(map[int64][]telegram.Update),
	}
}

// Start long-polls for updates until ctx is cancelled. Chats are handled
// concurrently, updates of one chat strictly in arrival order. Start waits
// for queued updates before returning.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.tg.DeleteWebhook(false); err != nil {
		return err
	}

	updates := b.tg.GetUpdatesChan(b.tg.NewUpdate(0, pollTimeout, 0))
	b.logger.Info("Bot started in polling mode")

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			b.Wait()
			b.logger.Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.Wait()
				return nil
			}
			b.enqueue(context.WithoutCancel(ctx), update)
		}
	}
}

func (b *Bot) enqueue(ctx context.Context, update telegram.Update) {
	chatID := chatOf(update)

	b.mu.Lock()
	defer b.mu.Unlock()

	queue, running := b.pending[chatID]
	b.pending[chatID] = append(queue, update)
	if running {
		return
	}

	b.wg.Add(1)
	go b.drain(ctx, chatID)
}

// drain handles the chat's updates one by one until its queue is empty.
func (b *Bot) drain(ctx context.Context, chatID int64) {
	defer b.wg.Done()

	for {
		b.mu.Lock()
		queue := b.pending[chatID]
		if len(queue) == 0 {
			delete(b.pending, chatID)
			b.mu.Unlock()
			return
		}
		update := queue[0]
		b.pending[chatID] = queue[1:]
		b.mu.Unlock()

		_ = b.HandleUpdate(ctx, update)
	}
}

func chatOf(update telegram.Update) int64 {
	if update.Message == nil {
		return 0
	}
	return update.Message.Chat.ID
}

// HandleUpdate processes one Bot API update. Updates without text are
// dropped with ErrTransport.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if jsonData, err := json.Marshal(update); err == nil {
		b.logger.WithField("update_structure", string(jsonData)).Trace("Received update")
	}

	u, err := FromTelegram(update)
	if err != nil {
		b.logger.WithError(err).WithField("update_id", update.UpdateID).Debug("Dropping update")
		return err
	}
	return b.dispatcher.Handle(ctx, u)
}

// Wait blocks until in-flight updates are done.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) RegisterCommand(cmd commands.Command) {
	if cmd == nil {
		b.logger.Error("Attempting to register nil command")
		return
	}

	if err := b.router.Register(cmd); err != nil {
		b.logger.WithError(err).WithField("command", cmd.Name()).Error("Failed to register command")
		return
	}

	b.logger.WithFields(logger.Fields{
		"command": cmd.Name(),
		"aliases": cmd.Aliases(),
	}).Debug("Registering command")
}

// SyncCommands publishes the registered commands to the Telegram menu.
func (b *Bot) SyncCommands() error {
	cmds := b.router.Commands()
	botCommands := make([]telegram.BotCommand, 0, len(cmds))
	for _, cmd := range cmds {
		botCommands = append(botCommands, telegram.BotCommand{
			Command:     cmd.Name(),
			Description: cmd.Description(),
		})
	}
	return b.tg.SetCommands(botCommands)
}

// RegisterWebhook points Telegram at url.
func (b *Bot) RegisterWebhook(url string) error {
	if url == "" {
		return errors.New("webhook url is empty")
	}
	return b.tg.SetWebhook(telegram.WebhookConfig{URL: url})
}

func (b *Bot) GetCommands() []commands.Command {
	return b.router.Commands()
}
