package commands

// Request is a command invocation for one conversation.
type Request struct {
	ConversationID int64
	Args           string
}

// Response is the text a command replies with. Options, when set, are
// offered to the user as quick replies.
type Response struct {
	Text    string
	Options []string
}

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Execute(req Request) (Response, error)
}
