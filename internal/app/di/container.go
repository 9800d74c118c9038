package di

import (
	"fmt"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/muratoffalex/relaybot/internal/ai"
	"github.com/muratoffalex/relaybot/internal/catalog"
	"github.com/muratoffalex/relaybot/internal/config"
	"github.com/muratoffalex/relaybot/internal/logger"
	"github.com/muratoffalex/relaybot/internal/network"
	"github.com/muratoffalex/relaybot/internal/service"
	"github.com/muratoffalex/relaybot/internal/session"
	"github.com/muratoffalex/relaybot/internal/telegram"
)

type Container struct {
	BotClient telegram.Client
	Logger    logger.Logger
	Localizer *service.Localizer
	Sessions  session.Store
	Catalog   *catalog.Catalog
	Selector  *service.ModelSelector
	Completer ai.Completer
}

func NewContainer(cfg *config.Config) (*Container, error) {
	logCfg := cfg.Log()
	l := logger.NewLogrusLogger(&logCfg)

	localizer, err := service.NewLocalizer(cfg.Global().InterfaceLanguage)
	if err != nil {
		return nil, fmt.Errorf("create localizer: %w", err)
	}

	httpClient, err := network.SetupHTTPClient(network.NewDefaultHTTPClientConfig(cfg.HTTP()), l)
	if err != nil {
		return nil, fmt.Errorf("setup http client: %w", err)
	}

	aiCfg := cfg.AI()
	completionHTTPClient, err := network.SetupHTTPClient(
		network.NewCompletionHTTPClientConfig(cfg.HTTP(), aiCfg.Timeout),
		l,
	)
	if err != nil {
		return nil, fmt.Errorf("setup completion http client: %w", err)
	}

	models, err := catalog.New(aiCfg.Models)
	if err != nil {
		return nil, fmt.Errorf("load model allow-list: %w", err)
	}
	l.WithField("models", models.IDs()).Info("Model allow-list loaded")

	sessions := session.NewMemoryStore()
	selector := service.NewModelSelector(sessions, models, aiCfg, l)

	completer := ai.NewOpenRouterClient(ai.ClientOptions{
		BaseURL:      aiCfg.BaseURL,
		APIKey:       aiCfg.APIKey,
		DefaultModel: selector.DefaultModel(),
		Headers:      aiCfg.AttributionHeaders(),
		Timeout:      aiCfg.Timeout,
		MaxRetries:   aiCfg.MaxRetries,
	}, l, completionHTTPClient)
	l.WithField("provider", completer.Name()).Info("Initialized completion client")

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram().Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("bot API client initialization: %w", err)
	}
	l.WithField("username", api.Self.UserName).Info("Bot API initialized")

	return &Container{
		BotClient: telegram.NewBotClient(api, l),
		Logger:    l,
		Localizer: localizer,
		Sessions:  sessions,
		Catalog:   models,
		Selector:  selector,
		Completer: completer,
	}, nil
}
