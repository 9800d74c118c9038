package core

import (
	"context"
	"sync"
	"testing"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/relaybot/internal/ai"
	"github.com/muratoffalex/relaybot/internal/app/di"
	"github.com/muratoffalex/relaybot/internal/catalog"
	"github.com/muratoffalex/relaybot/internal/commands"
	"github.com/muratoffalex/relaybot/internal/commands/about"
	"github.com/muratoffalex/relaybot/internal/commands/help"
	"github.com/muratoffalex/relaybot/internal/commands/model"
	"github.com/muratoffalex/relaybot/internal/commands/start"
	"github.com/muratoffalex/relaybot/internal/config"
	"github.com/muratoffalex/relaybot/internal/logger"
	"github.com/muratoffalex/relaybot/internal/service"
	"github.com/muratoffalex/relaybot/internal/session"
	"github.com/muratoffalex/relaybot/internal/telegram"
)

const testBotUsername = "relay_bot"

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, request ai.CompletionRequest) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

type sentReply struct {
	ConversationID int64
	ReplyTo        int
	Reply          Reply
}

type fakeSender struct {
	mu      sync.Mutex
	replies []sentReply
	typing  []int64
	sendErr error
}

func (s *fakeSender) SendReply(ctx context.Context, conversationID int64, replyTo int, reply Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.replies = append(s.replies, sentReply{ConversationID: conversationID, ReplyTo: replyTo, Reply: reply})
	return nil
}

func (s *fakeSender) SendTyping(ctx context.Context, conversationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = append(s.typing, conversationID)
	return nil
}

func (s *fakeSender) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make([]string, len(s.replies))
	for i, r := range s.replies {
		texts[i] = r.Reply.Text
	}
	return texts
}

type mockTelegramClient struct {
	mock.Mock
}

func (m *mockTelegramClient) Send(msg telegram.MessageConfig) (*telegram.Message, error) {
	args := m.Called(msg)
	return args.Get(0).(*telegram.Message), args.Error(1)
}

func (m *mockTelegramClient) SendWithRetry(msg telegram.MessageConfig, maxRetryCount int) (*telegram.Message, error) {
	args := m.Called(msg, maxRetryCount)
	return args.Get(0).(*telegram.Message), args.Error(1)
}

func (m *mockTelegramClient) Request(message telegram.MessageConfig) (*tgbotapi.APIResponse, error) {
	args := m.Called(message)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *mockTelegramClient) SendChatAction(chatID int64, action telegram.ChatAction) error {
	return m.Called(chatID, action).Error(0)
}

func (m *mockTelegramClient) SetWebhook(config telegram.WebhookConfig) error {
	return m.Called(config).Error(0)
}

func (m *mockTelegramClient) DeleteWebhook(dropPending bool) error {
	return m.Called(dropPending).Error(0)
}

func (m *mockTelegramClient) SetCommands(cmds []telegram.BotCommand) error {
	return m.Called(cmds).Error(0)
}

func (m *mockTelegramClient) GetUpdatesChan(config telegram.UpdateConfig) <-chan tgbotapi.Update {
	return m.Called(config).Get(0).(<-chan tgbotapi.Update)
}

func (m *mockTelegramClient) StopReceivingUpdates() {
	m.Called()
}

func (m *mockTelegramClient) NewUpdate(offset, timeout, limit int) telegram.UpdateConfig {
	return telegram.UpdateConfig{Offset: offset, Timeout: timeout, Limit: limit}
}

func (m *mockTelegramClient) Self() telegram.User {
	return telegram.User{ID: 1, UserName: testBotUsername, IsBot: true}
}

type fixture struct {
	dispatcher *Dispatcher
	router     *commands.Router
	selector   *service.ModelSelector
	completer  ai.Completer
	sender     *fakeSender
	log        *logger.TestLogger
	container  *di.Container
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	ai        config.AIConfig
	opts      DispatcherOptions
	completer ai.Completer
}

func withCompleter(c ai.Completer) fixtureOption {
	return func(cfg *fixtureConfig) { cfg.completer = c }
}

func withOptions(opts DispatcherOptions) fixtureOption {
	return func(cfg *fixtureConfig) { cfg.opts = opts }
}

func withDefaultModel(model string) fixtureOption {
	return func(cfg *fixtureConfig) { cfg.ai.DefaultModel = model }
}

func newFixture(t *testing.T, options ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{
		ai: config.AIConfig{
			FallbackModel: config.DefaultFallbackModel,
		},
		opts: DispatcherOptions{
			Temperature:      ai.DefaultTemperature,
			MaxTokens:        ai.DefaultMaxTokens,
			MaxMessageLength: 4000,
		},
		completer: &mockCompleter{},
	}
	for _, opt := range options {
		opt(&cfg)
	}

	l := logger.NewTestLogger()
	models, err := catalog.New(config.DefaultModels())
	require.NoError(t, err)
	localizer, err := service.NewLocalizer("en")
	require.NoError(t, err)

	store := session.NewMemoryStore()
	selector := service.NewModelSelector(store, models, cfg.ai, l)
	container := &di.Container{
		Logger:    l,
		Localizer: localizer,
		Sessions:  store,
		Catalog:   models,
		Selector:  selector,
		Completer: cfg.completer,
	}

	router := commands.NewRouter()
	for _, cmd := range []commands.Command{
		start.New(container),
		help.New(container),
		about.New(container),
		model.New(container),
	} {
		require.NoError(t, router.Register(cmd))
	}

	sender := &fakeSender{}
	dispatcher := NewDispatcher(
		NewClassifier(router, models, testBotUsername),
		router,
		selector,
		cfg.completer,
		localizer,
		store,
		sender,
		cfg.opts,
		l,
	)

	return &fixture{
		dispatcher: dispatcher,
		router:     router,
		selector:   selector,
		completer:  cfg.completer,
		sender:     sender,
		log:        l,
		container:  container,
	}
}

func (f *fixture) mockCompleter(t *testing.T) *mockCompleter {
	t.Helper()
	m, ok := f.completer.(*mockCompleter)
	require.True(t, ok)
	return m
}

func (f *fixture) handle(t *testing.T, u Update) []string {
	t.Helper()
	before := len(f.sender.Texts())
	require.NoError(t, f.dispatcher.Handle(context.Background(), u))
	return f.sender.Texts()[before:]
}

func textUpdate(chatID int64, text string) Update {
	return Update{
		ConversationID: chatID,
		MessageID:      10,
		Text:           text,
		IsCommand:      len(text) > 0 && text[0] == '/',
	}
}
