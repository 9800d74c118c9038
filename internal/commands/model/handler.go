package model

import (
	"errors"
	"strings"

	"github.com/muratoffalex/relaybot/internal/app/di"
	"github.com/muratoffalex/relaybot/internal/catalog"
	"github.com/muratoffalex/relaybot/internal/commands"
	"github.com/muratoffalex/relaybot/internal/commands/base"
	"github.com/muratoffalex/relaybot/internal/logger"
)

const (
	CommandName = "model"

	argReset = "reset"
)

type Command struct {
	*base.Command
}

func New(di *di.Container) *Command {
	cmd := &Command{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{"m"}
}

// Execute without arguments shows the listing and waits for a choice.
// "/model <id|n>" switches directly, "/model reset" clears the override.
func (c *Command) Execute(req commands.Request) (commands.Response, error) {
	args := strings.TrimSpace(req.Args)
	chatID := req.ConversationID
	models := c.Selector.Catalog()

	switch {
	case args == "":
		c.Selector.AwaitSelection(chatID)
		return commands.Response{
			Text: c.L("CommandModelListing", map[string]any{
				"Model":   c.Selector.GetModel(chatID),
				"Listing": models.Render(),
			}),
			Options: models.IDs(),
		}, nil

	case strings.EqualFold(args, argReset):
		c.Selector.ResetModel(chatID)
		return commands.Response{
			Text: c.L("ModelReset", map[string]any{"Model": c.Selector.DefaultModel()}),
		}, nil
	}

	id, ok := models.Resolve(args, true)
	if !ok {
		return c.unknown(chatID, args), nil
	}
	if err := c.Selector.SelectModel(chatID, id); err != nil {
		if errors.Is(err, catalog.ErrInvalidModelSelection) {
			return c.unknown(chatID, args), nil
		}
		return commands.Response{}, err
	}

	return commands.Response{
		Text: c.L("ModelSwitched", map[string]any{"Model": id}),
	}, nil
}

func (c *Command) unknown(chatID int64, args string) commands.Response {
	c.Logger.WithFields(logger.Fields{
		"chat_id": chatID,
		"input":   args,
	}).Debug("Unknown model requested")
	return commands.Response{
		Text: c.L("ModelUnknown", map[string]any{"Model": args}),
	}
}
