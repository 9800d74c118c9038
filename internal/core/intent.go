package core

import (
	"strings"
	"unicode"

	"github.com/muratoffalex/relaybot/internal/catalog"
	"github.com/muratoffalex/relaybot/internal/commands"
)

// Intent is what an update asks for. Exactly one of the types below.
type Intent interface {
	intent()
}

type Command struct {
	Name string
	Args string
}

type ModelSelection struct {
	ID string
}

type PlainText struct {
	Content string
}

// Ignored updates get no reply: empty text, unknown commands and commands
// addressed to another bot.
type Ignored struct {
	Reason string
}

func (Command) intent()        {}
func (ModelSelection) intent() {}
func (PlainText) intent()      {}
func (Ignored) intent()        {}

const commandPrefix = "/"

type Classifier struct {
	router      *commands.Router
	catalog     *catalog.Catalog
	botUsername string
}

func NewClassifier(router *commands.Router, models *catalog.Catalog, botUsername string) *Classifier {
	return &Classifier{
		router:      router,
		catalog:     models,
		botUsername: botUsername,
	}
}

// Classify decides what the update is. Listing numbers are accepted as a
// model choice only right after the listing was shown (awaiting) or when
// the message replies to the listing.
func (c *Classifier) Classify(u Update, awaiting bool) Intent {
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return Ignored{Reason: "empty text"}
	}

	if u.IsCommand || strings.HasPrefix(text, commandPrefix) {
		return c.classifyCommand(text)
	}

	allowIndex := awaiting || c.repliesToListing(u.ReplyToText)
	if id, ok := c.catalog.Resolve(text, allowIndex); ok {
		return ModelSelection{ID: id}
	}

	return PlainText{Content: u.Text}
}

func (c *Classifier) classifyCommand(text string) Intent {
	head, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, args = text[:i], text[i:]
	}
	name, mention, _ := strings.Cut(strings.TrimPrefix(head, commandPrefix), "@")
	if mention != "" && !strings.EqualFold(mention, c.botUsername) {
		return Ignored{Reason: "command for another bot"}
	}

	cmd, ok := c.router.Resolve(name)
	if !ok {
		return Ignored{Reason: "unknown command"}
	}
	return Command{Name: cmd.Name(), Args: strings.TrimSpace(args)}
}

func (c *Classifier) repliesToListing(replyTo string) bool {
	return replyTo != "" && strings.Contains(replyTo, c.catalog.Render())
}
