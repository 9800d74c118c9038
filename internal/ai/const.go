package ai

const (
	ProviderOpenrouter = "openrouter"

	RoleUser = "user"

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000

	defaultChatURL     = "chat/completions"
	maxErrorBodyLength = 512
	maxLoggedField     = 1000
)
