package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/relaybot/internal/app/di"
	"github.com/muratoffalex/relaybot/internal/catalog"
	"github.com/muratoffalex/relaybot/internal/commands"
	"github.com/muratoffalex/relaybot/internal/config"
	"github.com/muratoffalex/relaybot/internal/logger"
	"github.com/muratoffalex/relaybot/internal/service"
	"github.com/muratoffalex/relaybot/internal/session"
)

func newCommand(t *testing.T) (*Command, *service.ModelSelector, *logger.TestLogger) {
	t.Helper()
	l := logger.NewTestLogger()
	models, err := catalog.New(config.DefaultModels())
	require.NoError(t, err)
	localizer, err := service.NewLocalizer("en")
	require.NoError(t, err)
	selector := service.NewModelSelector(session.NewMemoryStore(), models, config.AIConfig{
		FallbackModel: config.DefaultFallbackModel,
	}, l)

	return New(&di.Container{
		Logger:    l,
		Localizer: localizer,
		Selector:  selector,
	}), selector, l
}

func TestModelCommand_Listing(t *testing.T) {
	cmd, selector, _ := newCommand(t)

	resp, err := cmd.Execute(commands.Request{ConversationID: 1})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Current model: "+config.DefaultFallbackModel)
	assert.Contains(t, resp.Text, selector.Catalog().Render())
	assert.Equal(t, config.DefaultModels(), resp.Options)
	assert.True(t, selector.ConsumeAwaiting(1))
}

func TestModelCommand_ListingIsStable(t *testing.T) {
	cmd, selector, _ := newCommand(t)

	first, err := cmd.Execute(commands.Request{ConversationID: 1})
	require.NoError(t, err)
	selector.ConsumeAwaiting(1)
	second, err := cmd.Execute(commands.Request{ConversationID: 1})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestModelCommand_Switch(t *testing.T) {
	tests := []struct {
		name  string
		args  string
		model string
	}{
		{"by id", "anthropic/claude-3-haiku", "anthropic/claude-3-haiku"},
		{"by number", "2", "openai/gpt-3.5-turbo"},
		{"with spaces", "  1 ", "deepseek/deepseek-v3-base:free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, selector, _ := newCommand(t)

			resp, err := cmd.Execute(commands.Request{ConversationID: 5, Args: tt.args})
			require.NoError(t, err)
			assert.Equal(t, "✅ Switched to: "+tt.model, resp.Text)
			assert.Equal(t, tt.model, selector.GetModel(5))
		})
	}
}

func TestModelCommand_UnknownLeavesStateUntouched(t *testing.T) {
	cmd, selector, l := newCommand(t)
	require.True(t, selector.SetModel(5, "openai/gpt-3.5-turbo"))

	resp, err := cmd.Execute(commands.Request{ConversationID: 5, Args: "gpt-5"})
	require.NoError(t, err)
	assert.Equal(t, "❌ Unknown model: gpt-5. Send /model to see the list.", resp.Text)
	assert.Equal(t, "openai/gpt-3.5-turbo", selector.GetModel(5))
	assert.True(t, l.HasEntry("debug", "Unknown model requested"))
}

func TestModelCommand_Reset(t *testing.T) {
	cmd, selector, _ := newCommand(t)
	require.True(t, selector.SetModel(5, "openai/gpt-3.5-turbo"))

	resp, err := cmd.Execute(commands.Request{ConversationID: 5, Args: "RESET"})
	require.NoError(t, err)
	assert.Equal(t, "✅ Model reset to default: "+config.DefaultFallbackModel, resp.Text)
	assert.Equal(t, config.DefaultFallbackModel, selector.GetModel(5))
}

func TestModelCommand_Metadata(t *testing.T) {
	cmd, _, _ := newCommand(t)
	assert.Equal(t, "model", cmd.Name())
	assert.Equal(t, []string{"m"}, cmd.Aliases())
	assert.Equal(t, "Change AI model", cmd.Description())
}
