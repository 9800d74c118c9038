package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/muratoffalex/relaybot/internal/ai"
	"github.com/muratoffalex/relaybot/internal/commands"
	"github.com/muratoffalex/relaybot/internal/logger"
	"github.com/muratoffalex/relaybot/internal/service"
)

// Sender delivers replies back to the conversation.
type Sender interface {
	SendReply(ctx context.Context, conversationID int64, replyTo int, reply Reply) error
	SendTyping(ctx context.Context, conversationID int64) error
}

// Locker serializes work per conversation.
type Locker interface {
	Lock(conversationID int64) func()
}

type DispatcherOptions struct {
	Temperature      float64
	MaxTokens        int
	MaxMessageLength int
	// RequestTimeout bounds one completion including retries. Zero means
	// only the client's own per-attempt timeout applies.
	RequestTimeout time.Duration
}

type Dispatcher struct {
	classifier *Classifier
	router     *commands.Router
	selector   *service.ModelSelector
	completer  ai.Completer
	localizer  *service.Localizer
	locker     Locker
	sender     Sender
	opts       DispatcherOptions
	logger     logger.Logger
}

func NewDispatcher(
	classifier *Classifier,
	router *commands.Router,
	selector *service.ModelSelector,
	completer ai.Completer,
	localizer *service.Localizer,
	locker Locker,
	sender Sender,
	opts DispatcherOptions,
	log logger.Logger,
) *Dispatcher {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = ai.DefaultMaxTokens
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = 4000
	}
	return &Dispatcher{
		classifier: classifier,
		router:     router,
		selector:   selector,
		completer:  completer,
		localizer:  localizer,
		locker:     locker,
		sender:     sender,
		opts:       opts,
		logger:     log,
	}
}

// Handle dispatches one update and sends the replies in order. Updates for
// the same conversation are processed one at a time.
func (d *Dispatcher) Handle(ctx context.Context, u Update) error {
	unlock := d.locker.Lock(u.ConversationID)
	defer unlock()

	log := logger.WithTrace(d.logger, logger.Fields{
		"chat_id":    u.ConversationID,
		"message_id": u.MessageID,
	})

	replies := d.dispatch(ctx, u, log)
	for i, reply := range replies {
		if err := d.sender.SendReply(ctx, u.ConversationID, u.MessageID, reply); err != nil {
			log.WithError(err).WithFields(logger.Fields{
				"chunk": i + 1,
				"total": len(replies),
			}).Error("Failed to send reply")
			return fmt.Errorf("send reply %d/%d: %w", i+1, len(replies), err)
		}
	}
	return nil
}

// Dispatch computes the replies for an update without sending them.
func (d *Dispatcher) Dispatch(ctx context.Context, u Update) []Reply {
	return d.dispatch(ctx, u, logger.WithTrace(d.logger, logger.Fields{"chat_id": u.ConversationID}))
}

func (d *Dispatcher) dispatch(ctx context.Context, u Update, log logger.Logger) (replies []Reply) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logger.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Unhandled panic while dispatching update")
			replies = []Reply{d.text("ErrorGeneric", nil)}
		}
	}()

	awaiting := d.selector.ConsumeAwaiting(u.ConversationID)

	switch intent := d.classifier.Classify(u, awaiting).(type) {
	case Command:
		return d.handleCommand(u, intent, log)
	case ModelSelection:
		return d.handleSelection(u, intent, log)
	case PlainText:
		return d.handlePlainText(ctx, u, intent, log)
	case Ignored:
		log.WithField("reason", intent.Reason).Debug("Update ignored")
		return nil
	default:
		panic(fmt.Sprintf("unhandled intent %T", intent))
	}
}

func (d *Dispatcher) handleCommand(u Update, intent Command, log logger.Logger) []Reply {
	cmd, ok := d.router.Resolve(intent.Name)
	if !ok {
		return nil
	}

	log.WithFields(logger.Fields{
		"command": intent.Name,
		"args":    intent.Args,
	}).Info("Handling command")

	resp, err := cmd.Execute(commands.Request{
		ConversationID: u.ConversationID,
		Args:           intent.Args,
	})
	if err != nil {
		log.WithError(err).WithField("command", intent.Name).Error("Failed to handle command")
		return []Reply{d.text("ErrorGeneric", nil)}
	}
	if resp.Text == "" {
		return nil
	}
	return []Reply{{Text: resp.Text, Options: resp.Options}}
}

func (d *Dispatcher) handleSelection(u Update, intent ModelSelection, log logger.Logger) []Reply {
	if err := d.selector.SelectModel(u.ConversationID, intent.ID); err != nil {
		log.WithError(err).Warn("Model selection rejected")
		return []Reply{d.text("ModelUnknown", map[string]any{"Model": intent.ID})}
	}
	return []Reply{d.text("ModelSwitched", map[string]any{"Model": intent.ID})}
}

func (d *Dispatcher) handlePlainText(ctx context.Context, u Update, intent PlainText, log logger.Logger) []Reply {
	model := d.selector.GetModel(u.ConversationID)
	log = log.WithField("model", model)

	req, err := ai.NewCompletionRequest(model, intent.Content, d.opts.Temperature, d.opts.MaxTokens)
	if err != nil {
		log.WithError(err).Warn("Invalid completion request")
		return []Reply{d.text("ErrorGeneric", nil)}
	}

	if err := d.sender.SendTyping(ctx, u.ConversationID); err != nil {
		log.WithError(err).Debug("Failed to send typing action")
	}

	if d.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	content, err := d.completer.Complete(ctx, req)
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"kind":     ai.KindOf(err),
			"duration": time.Since(start),
		}).Error("Completion failed")
		return []Reply{d.completionError(err)}
	}

	chunks := SplitMessage(content, d.opts.MaxMessageLength)
	log.WithFields(logger.Fields{
		"duration": time.Since(start),
		"chunks":   len(chunks),
	}).Info("Completion relayed")

	replies := make([]Reply, len(chunks))
	for i, chunk := range chunks {
		replies[i] = Reply{Text: chunk}
	}
	return replies
}

func (d *Dispatcher) completionError(err error) Reply {
	switch ai.KindOf(err) {
	case ai.KindEmptyCompletion:
		return d.text("ErrorEmptyCompletion", nil)
	case ai.KindTimeout:
		return d.text("ErrorTimeout", nil)
	default:
		return d.text("ErrorRequestFailed", map[string]any{"Detail": errorDetail(err)})
	}
}

// errorDetail keeps user-facing error text short and free of response bodies.
func errorDetail(err error) string {
	var aiErr *ai.AIError
	if errors.As(err, &aiErr) {
		if aiErr.Message != "" {
			return aiErr.Message
		}
		if aiErr.HTTPStatusCode != 0 {
			return fmt.Sprintf("request failed with status %d", aiErr.HTTPStatusCode)
		}
	}
	return "request failed"
}

func (d *Dispatcher) text(messageID string, data map[string]any) Reply {
	return Reply{Text: d.localizer.Localize(messageID, data)}
}
