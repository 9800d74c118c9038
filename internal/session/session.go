package session

// Session is the per-conversation state. The zero value is a fresh session.
type Session struct {
	SelectedModel string
	// AwaitingSelection is set after the model listing was shown, so that a
	// bare number in the next message is read as a choice.
	AwaitingSelection bool
}

type Store interface {
	Get(conversationID int64) Session
	// Update applies fn to a copy of the session and stores the result only
	// if fn returns nil.
	Update(conversationID int64, fn func(*Session) error) error
	// Lock serializes work for one conversation. The returned func unlocks.
	Lock(conversationID int64) func()
	Len() int
}
