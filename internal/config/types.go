package config

import (
	"os"
	"strings"
	"time"
)

const (
	ModeWebhook = "webhook"
	ModePolling = "polling"

	DefaultFallbackModel = "deepseek/deepseek-v3-base:free"
)

// DefaultModels is the allow-list used when none is configured.
func DefaultModels() []string {
	return []string{
		"deepseek/deepseek-v3-base:free",
		"openai/gpt-3.5-turbo",
		"anthropic/claude-3-haiku",
	}
}

type GlobalConfig struct {
	InterfaceLanguage string `koanf:"interface_language"`
}

type HTTPConfig struct {
	proxy   *string
	noProxy []string
}

func NewHTTPConfig(proxy string, noProxy ...string) HTTPConfig {
	return HTTPConfig{proxy: &proxy, noProxy: noProxy}
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != nil && *c.proxy != "" {
		return *c.proxy
	}
	if proxyURL := os.Getenv("HTTPS_PROXY"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("https_proxy"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("HTTP_PROXY"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("http_proxy"); proxyURL != "" {
		return proxyURL
	}
	return ""
}

func (c HTTPConfig) GetNoProxy() []string {
	return c.noProxy
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

type TelegramConfig struct {
	Token            string `koanf:"token"`
	Mode             string `koanf:"mode"`
	WebhookURL       string `koanf:"webhook_url"`
	MaxMessageLength int    `koanf:"max_message_length"`
}

func (c TelegramConfig) IsWebhook() bool {
	return c.Mode == ModeWebhook
}

type ServerConfig struct {
	Address string `koanf:"address"`
}

type AIConfig struct {
	BaseURL       string        `koanf:"base_url"`
	APIKey        string        `koanf:"api_key"`
	DefaultModel  string        `koanf:"default_model"`
	FallbackModel string        `koanf:"fallback_model"`
	Models        []string      `koanf:"models"`
	Temperature   float64       `koanf:"temperature"`
	MaxTokens     int           `koanf:"max_tokens"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxRetries    int           `koanf:"max_retries"`
	SiteURL       string        `koanf:"site_url"`
	SiteName      string        `koanf:"site_name"`
}

// AttributionHeaders are sent with every completion request so the
// provider can attribute traffic to this deployment.
func (c AIConfig) AttributionHeaders() map[string]string {
	headers := map[string]string{}
	if c.SiteURL != "" {
		headers["HTTP-Referer"] = c.SiteURL
	}
	if c.SiteName != "" {
		headers["X-Title"] = c.SiteName
	}
	return headers
}
