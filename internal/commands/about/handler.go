package about

import (
	"github.com/muratoffalex/relaybot/internal/app/di"
	"github.com/muratoffalex/relaybot/internal/commands"
	"github.com/muratoffalex/relaybot/internal/commands/base"
)

const CommandName = "about"

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

func (c *Command) Execute(req commands.Request) (commands.Response, error) {
	return c.Text("CommandAboutText", req.ConversationID), nil
}
