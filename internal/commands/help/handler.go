package help

import (
	"github.com/muratoffalex/relaybot/internal/app/di"
	"github.com/muratoffalex/relaybot/internal/commands"
	"github.com/muratoffalex/relaybot/internal/commands/base"
)

const CommandName = "help"

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
	return []string{"h"}
}

func (c *Command) Execute(req commands.Request) (commands.Response, error) {
	return c.Text("CommandHelpText", req.ConversationID), nil
}
