package app

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/muratoffalex/relaybot/internal/app/di"
	"github.com/muratoffalex/relaybot/internal/commands"
	"github.com/muratoffalex/relaybot/internal/commands/about"
	"github.com/muratoffalex/relaybot/internal/commands/help"
	"github.com/muratoffalex/relaybot/internal/commands/model"
	"github.com/muratoffalex/relaybot/internal/commands/start"
	"github.com/muratoffalex/relaybot/internal/config"
	"github.com/muratoffalex/relaybot/internal/core"
	"github.com/muratoffalex/relaybot/internal/logger"
	"github.com/muratoffalex/relaybot/internal/server"
)

// retrySlack covers the backoff waits between completion attempts.
const retrySlack = 5 * time.Second

type Application struct {
	Logger logger.Logger
	cfg    *config.Config
	bot    *core.Bot
	server *server.Server
	di     *di.Container
	ctx    context.Context
	cancel context.CancelFunc
}

func New() (*Application, error) {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	container.Logger.Info("DI Container created")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	app := build(ctx, cancel, cfg, container)
	app.Logger.WithField("mode", cfg.Telegram().Mode).Info("Bot instance created")

	return app, nil
}

func build(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, container *di.Container) *Application {
	aiCfg := cfg.AI()
	router := commands.NewRouter()
	dispatcher := core.NewDispatcher(
		core.NewClassifier(router, container.Catalog, container.BotClient.Self().UserName),
		router,
		container.Selector,
		container.Completer,
		container.Localizer,
		container.Sessions,
		core.NewTelegramSender(container.BotClient),
		core.DispatcherOptions{
			Temperature:      aiCfg.Temperature,
			MaxTokens:        aiCfg.MaxTokens,
			MaxMessageLength: cfg.Telegram().MaxMessageLength,
			RequestTimeout:   requestTimeout(aiCfg),
		},
		container.Logger,
	)
	bot := core.NewBot(container.BotClient, router, dispatcher, container.Logger)

	app := &Application{
		Logger: container.Logger,
		cfg:    cfg,
		bot:    bot,
		server: server.New(cfg.Server().Address, bot, container.Logger),
		di:     container,
		ctx:    ctx,
		cancel: cancel,
	}
	app.registerCommands()
	return app
}

// requestTimeout bounds a whole completion: every attempt plus the waits
// between them.
func requestTimeout(cfg config.AIConfig) time.Duration {
	attempts := time.Duration(max(cfg.MaxRetries, 0) + 1)
	return cfg.Timeout*attempts + retrySlack*(attempts-1)
}

func (a *Application) registerCommands() {
	a.bot.RegisterCommand(start.New(a.di))
	a.bot.RegisterCommand(help.New(a.di))
	a.bot.RegisterCommand(about.New(a.di))
	a.bot.RegisterCommand(model.New(a.di))
}

// Start runs the HTTP server and, in polling mode, the update loop. It
// returns once both have stopped.
func (a *Application) Start() error {
	a.Logger.Info("Starting application")
	defer a.cancel()

	if err := a.bot.SyncCommands(); err != nil {
		a.Logger.WithError(err).Warn("Failed to publish command list")
	}

	tgCfg := a.cfg.Telegram()
	if tgCfg.IsWebhook() {
		if tgCfg.WebhookURL == "" {
			a.Logger.Warn("Webhook mode without webhook_url, expecting the webhook to be registered externally")
		} else if err := a.bot.RegisterWebhook(tgCfg.WebhookURL); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(a.ctx)
	g.Go(func() error {
		return a.server.Start(ctx)
	})
	if !tgCfg.IsWebhook() {
		g.Go(func() error {
			return a.bot.Start(ctx)
		})
	}

	err := g.Wait()
	a.bot.Wait()
	return err
}

func (a *Application) WaitForShutdown() {
	<-a.ctx.Done()
	a.Logger.Info("Application stopped")
}
