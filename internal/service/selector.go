package service

import (
	"github.com/muratoffalex/relaybot/internal/catalog"
	"github.com/muratoffalex/relaybot/internal/config"
	"github.com/muratoffalex/relaybot/internal/logger"
	"github.com/muratoffalex/relaybot/internal/session"
)

// ModelSelector owns the selected-model part of conversation sessions.
type ModelSelector struct {
	store        session.Store
	catalog      *catalog.Catalog
	defaultModel string
	logger       logger.Logger
}

// NewModelSelector resolves the process-wide default once: the configured
// default if it is on the allow-list, else the fallback.
func NewModelSelector(store session.Store, models *catalog.Catalog, cfg config.AIConfig, log logger.Logger) *ModelSelector {
	defaultModel := cfg.FallbackModel
	if defaultModel == "" {
		defaultModel = config.DefaultFallbackModel
	}
	if cfg.DefaultModel != "" {
		if models.Contains(cfg.DefaultModel) {
			defaultModel = cfg.DefaultModel
		} else {
			log.WithFields(logger.Fields{
				"default_model":  cfg.DefaultModel,
				"fallback_model": defaultModel,
			}).Warn("Default model is not in the allow-list, using fallback")
		}
	}

	return &ModelSelector{
		store:        store,
		catalog:      models,
		defaultModel: defaultModel,
		logger:       log,
	}
}

func (s *ModelSelector) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *ModelSelector) DefaultModel() string {
	return s.defaultModel
}

// GetModel returns the conversation override or the default.
func (s *ModelSelector) GetModel(conversationID int64) string {
	if model := s.store.Get(conversationID).SelectedModel; model != "" {
		return model
	}
	return s.defaultModel
}

// SetModel stores candidate as the conversation model. Ids outside the
// allow-list are rejected and leave the session untouched.
func (s *ModelSelector) SetModel(conversationID int64, candidate string) bool {
	return s.SelectModel(conversationID, candidate) == nil
}

// SelectModel is SetModel with the rejection reason.
func (s *ModelSelector) SelectModel(conversationID int64, candidate string) error {
	err := s.store.Update(conversationID, func(sess *session.Session) error {
		if err := s.catalog.Validate(candidate); err != nil {
			return err
		}
		sess.SelectedModel = candidate
		sess.AwaitingSelection = false
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", conversationID).Debug("Model selection rejected")
		return err
	}
	s.logger.WithFields(logger.Fields{
		"chat_id": conversationID,
		"model":   candidate,
	}).Info("Model switched")
	return nil
}

func (s *ModelSelector) ResetModel(conversationID int64) {
	_ = s.store.Update(conversationID, func(sess *session.Session) error {
		sess.SelectedModel = ""
		sess.AwaitingSelection = false
		return nil
	})
}

// AwaitSelection marks that the listing was just shown to the conversation.
func (s *ModelSelector) AwaitSelection(conversationID int64) {
	_ = s.store.Update(conversationID, func(sess *session.Session) error {
		sess.AwaitingSelection = true
		return nil
	})
}

// ConsumeAwaiting reports whether a listing was pending and clears the flag.
func (s *ModelSelector) ConsumeAwaiting(conversationID int64) bool {
	if !s.store.Get(conversationID).AwaitingSelection {
		return false
	}
	var awaiting bool
	_ = s.store.Update(conversationID, func(sess *session.Session) error {
		awaiting = sess.AwaitingSelection
		sess.AwaitingSelection = false
		return nil
	})
	return awaiting
}
