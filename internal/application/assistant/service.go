// Package assistant implements the rule-based help assistant and its
// per-user conversation history.
package assistant

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/marketplace/backend/internal/domain/assistant"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MaxMessageLength bounds a single user message, in characters
const MaxMessageLength = 1000

// SendRequest is a message to the assistant
type SendRequest struct {
	Message string `json:"message" binding:"required"`
}

// SendResponse carries the assistant's answer
type SendResponse struct {
	Question assistant.Turn `json:"question"`
	Answer   assistant.Turn `json:"answer"`
}

// HistoryResponse is the caller's stored conversation
type HistoryResponse struct {
	Turns []assistant.Turn `json:"turns"`
}

// Service answers assistant messages and keeps their history
type Service struct {
	history   assistant.HistoryStore
	responder *assistant.Responder
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates a new assistant Service
func NewService(history assistant.HistoryStore, responder *assistant.Responder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{history: history, responder: responder, now: time.Now, logger: logger}
}

// Send answers a message and appends both turns to the caller's history.
// A failure to store the history is logged and the answer still returned.
func (s *Service) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is too long")
	}

	reply := s.responder.Respond(text)
	now := s.now()
	question := assistant.Turn{Speaker: assistant.SpeakerUser, Content: text, At: now}
	answer := assistant.Turn{Speaker: assistant.SpeakerAssistant, Content: reply.Answer, Intent: reply.Intent, At: now}

	h, err := s.history.Load(ctx, me.UserID)
	if err != nil {
		s.logger.Warn("failed to load assistant history", zap.String("user_id", me.UserID.String()), zap.Error(err))
		h = assistant.NewHistory(me.UserID)
	}
	h.Append(question, answer)
	if err := s.history.Save(ctx, h); err != nil {
		s.logger.Warn("failed to save assistant history", zap.String("user_id", me.UserID.String()), zap.Error(err))
	}

	s.logger.Debug("assistant replied", zap.String("intent", reply.Intent))
	return &SendResponse{Question: question, Answer: answer}, nil
}

// History returns the caller's stored conversation, oldest first
func (s *Service) History(ctx context.Context) (*HistoryResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.history.Load(ctx, me.UserID)
	if err != nil {
		return nil, err
	}
	return &HistoryResponse{Turns: h.Turns}, nil
}

// Clear deletes the caller's conversation
func (s *Service) Clear(ctx context.Context) error {
	me, err := identity.Require(ctx)
	if err != nil {
		return err
	}
	return s.history.Delete(ctx, me.UserID)
}
