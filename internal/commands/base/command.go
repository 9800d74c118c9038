package base

import (
	"strings"

	"github.com/muratoffalex/relaybot/internal/app/di"
	"github.com/muratoffalex/relaybot/internal/commands"
	"github.com/muratoffalex/relaybot/internal/logger"
	"github.com/muratoffalex/relaybot/internal/service"
)

type Command struct {
	command   commands.Command
	Logger    logger.Logger
	Selector  *service.ModelSelector
	Localizer *service.Localizer
}

func NewCommand(cmd commands.Command, di *di.Container) *Command {
	return &Command{
		command:   cmd,
		Logger:    di.Logger.WithField("command", cmd.Name()),
		Selector:  di.Selector,
		Localizer: di.Localizer,
	}
}

func (c *Command) Name() string {
	return ""
}

func (c *Command) Aliases() []string {
	return []string{}
}

func (c *Command) Description() string {
	return c.L("Command"+titleCase(c.command.Name())+"Description", nil)
}

func (c *Command) Execute(req commands.Request) (commands.Response, error) {
	return commands.Response{}, nil
}

func (c *Command) L(messageID string, data map[string]any) string {
	return c.Localizer.Localize(messageID, data)
}

// Text renders messageID with the conversation's current model.
func (c *Command) Text(messageID string, conversationID int64) commands.Response {
	return commands.Response{
		Text: c.L(messageID, map[string]any{
			"Model": c.Selector.GetModel(conversationID),
		}),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
