package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	GLOBAL_LANGUAGE             = "global.interface_language"
	HTTP_PROXY                  = "http.proxy"
	HTTP_NO_PROXY               = "http.no_proxy"
	AI_BASE_URL                 = "ai.base_url"
	AI_API_KEY                  = "ai.api_key"
	AI_DEFAULT_MODEL            = "ai.default_model"
	AI_FALLBACK_MODEL           = "ai.fallback_model"
	AI_MODELS                   = "ai.models"
	AI_TEMPERATURE              = "ai.temperature"
	AI_MAX_TOKENS               = "ai.max_tokens"
	AI_TIMEOUT                  = "ai.timeout"
	AI_MAX_RETRIES              = "ai.max_retries"
	AI_SITE_URL                 = "ai.site_url"
	AI_SITE_NAME                = "ai.site_name"
	TELEGRAM_TOKEN              = "telegram.token"
	TELEGRAM_MODE               = "telegram.mode"
	TELEGRAM_WEBHOOK_URL        = "telegram.webhook_url"
	TELEGRAM_MAX_MESSAGE_LENGTH = "telegram.max_message_length"
	SERVER_ADDRESS              = "server.address"
	LOGGING_LEVEL               = "logging.level"
	LOGGING_WRITE_IN_FILE       = "logging.write_in_file"
	LOGGING_FILE_PATH           = "logging.file_path"
)

const envPrefix = "RELAYBOT_"

var (
	ErrTelegramTokenRequired = errors.New("telegram token is required")
	ErrAPIKeyRequired        = errors.New("completion API key is required")
)

// legacyEnv maps the bare variable names of the hosted deployment onto config keys.
var legacyEnv = map[string]string{
	"TELEGRAM_BOT_TOKEN": TELEGRAM_TOKEN,
	"OPENROUTER_API_KEY": AI_API_KEY,
	"DEFAULT_MODEL":      AI_DEFAULT_MODEL,
	"SITE_URL":           AI_SITE_URL,
	"SITE_NAME":          AI_SITE_NAME,
	"WEBHOOK_URL":        TELEGRAM_WEBHOOK_URL,
}

type Config struct {
	k *koanf.Koanf
}

var (
	configPath string
	envPath    string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&envPath, "env", ".env", "Path to .env file")
}

func Load() (*Config, error) {
	return load(getConfigPaths(), envPath)
}

func defaults() map[string]any {
	return map[string]any{
		GLOBAL_LANGUAGE:             "en",
		HTTP_PROXY:                  "",
		HTTP_NO_PROXY:               []string{},
		AI_BASE_URL:                 "https://openrouter.ai/api/v1",
		AI_API_KEY:                  "",
		AI_DEFAULT_MODEL:            "",
		AI_FALLBACK_MODEL:           DefaultFallbackModel,
		AI_MODELS:                   DefaultModels(),
		AI_TEMPERATURE:              0.7,
		AI_MAX_TOKENS:               1000,
		AI_TIMEOUT:                  30 * time.Second,
		AI_MAX_RETRIES:              2,
		AI_SITE_URL:                 "https://your-bot.vercel.app",
		AI_SITE_NAME:                "Telegram AI Bot",
		TELEGRAM_TOKEN:              "",
		TELEGRAM_MODE:               ModeWebhook,
		TELEGRAM_WEBHOOK_URL:        "",
		TELEGRAM_MAX_MESSAGE_LENGTH: 4000,
		SERVER_ADDRESS:              ":8080",
		LOGGING_LEVEL:               "info",
		LOGGING_WRITE_IN_FILE:       false,
		LOGGING_FILE_PATH:           "relaybot.log",
	}
}

func load(paths []string, dotenv string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			break
		}
	}

	if dotenv != "" {
		if _, err := os.Stat(dotenv); err == nil {
			// Existing process variables win over the file.
			if err := godotenv.Load(dotenv); err != nil {
				return nil, fmt.Errorf("error loading env file %s: %w", dotenv, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"_", ".", 1,
		)
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	// PORT is what most hosting platforms hand out.
	if port := os.Getenv("PORT"); port != "" {
		if err := k.Load(confmap.Provider(map[string]any{SERVER_ADDRESS: ":" + port}, "."), nil); err != nil {
			return nil, fmt.Errorf("error loading port: %w", err)
		}
	}

	cfg := &Config{k: k}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.k.String(TELEGRAM_TOKEN) == "" {
		return ErrTelegramTokenRequired
	}
	if c.k.String(AI_API_KEY) == "" {
		return ErrAPIKeyRequired
	}
	switch mode := c.k.String(TELEGRAM_MODE); mode {
	case ModeWebhook, ModePolling:
	default:
		return fmt.Errorf("unsupported telegram mode: %s", mode)
	}
	return nil
}

func (c *Config) Telegram() TelegramConfig {
	return TelegramConfig{
		Token:            c.k.String(TELEGRAM_TOKEN),
		Mode:             c.k.String(TELEGRAM_MODE),
		WebhookURL:       c.k.String(TELEGRAM_WEBHOOK_URL),
		MaxMessageLength: c.k.Int(TELEGRAM_MAX_MESSAGE_LENGTH),
	}
}

func (c *Config) Server() ServerConfig {
	return ServerConfig{
		Address: c.k.String(SERVER_ADDRESS),
	}
}

func (c *Config) AI() AIConfig {
	return AIConfig{
		BaseURL:       c.k.String(AI_BASE_URL),
		APIKey:        c.k.String(AI_API_KEY),
		DefaultModel:  c.k.String(AI_DEFAULT_MODEL),
		FallbackModel: c.k.String(AI_FALLBACK_MODEL),
		Models:        c.list(AI_MODELS),
		Temperature:   c.k.Float64(AI_TEMPERATURE),
		MaxTokens:     c.k.Int(AI_MAX_TOKENS),
		Timeout:       c.k.Duration(AI_TIMEOUT),
		MaxRetries:    c.k.Int(AI_MAX_RETRIES),
		SiteURL:       c.k.String(AI_SITE_URL),
		SiteName:      c.k.String(AI_SITE_NAME),
	}
}

func (c *Config) Log() LoggingConfig {
	return LoggingConfig{
		LogLevel:    c.k.String(LOGGING_LEVEL),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func (c *Config) Global() GlobalConfig {
	return GlobalConfig{
		InterfaceLanguage: c.k.String(GLOBAL_LANGUAGE),
	}
}

func (c *Config) HTTP() HTTPConfig {
	proxy := c.k.String(HTTP_PROXY)
	return HTTPConfig{
		proxy:   &proxy,
		noProxy: c.list(HTTP_NO_PROXY),
	}
}

// list reads a key that is either a TOML array or a comma separated env value.
func (c *Config) list(path string) []string {
	if s, ok := c.k.Get(path).(string); ok {
		return splitList([]string{s})
	}
	return splitList(c.k.Strings(path))
}

// splitList flattens comma separated values coming from env variables.
func splitList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

func getConfigPaths() []string {
	if configPath != "" {
		return []string{configPath}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"relaybot.toml",
		"config.toml",
		filepath.Join(xdgConfig, "relaybot", "config.toml"),
		"/etc/relaybot/config.toml",
	}
}
