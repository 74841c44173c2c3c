// Package messaging implements the conversation view: the conversation list,
// thread selection with read tracking, sending, and live push subscriptions.
package messaging

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/messaging"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	// DefaultConversationLimit bounds LoadConversations
	DefaultConversationLimit = 50
	// MinSearchLength is the shortest accepted directory search term
	MinSearchLength = 2
	// UserSearchLimit bounds SearchUsers results
	UserSearchLimit = 20
	// writeAttempts bounds retries of a conversation write that lost an
	// optimistic lock race
	writeAttempts = 3
)

// ErrSearchTooShort is returned for directory searches under MinSearchLength characters
var ErrSearchTooShort = shared.NewDomainError("INVALID_SEARCH", "Search term must be at least 2 characters")

// ConversationService handles conversation and message operations for the
// identity carried in the request context.
type ConversationService struct {
	conversations  messaging.ConversationRepository
	messages       messaging.MessageRepository
	directory      identity.DirectoryRepository
	push           messaging.PushChannel
	eventPublisher shared.EventPublisher
	tx             shared.TxRunner
	limit          int
	logger         *zap.Logger
	now            func() time.Time
}

// Option configures a ConversationService
type Option func(*ConversationService)

// WithConversationLimit overrides DefaultConversationLimit
func WithConversationLimit(limit int) Option {
	return func(s *ConversationService) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithTransactions runs each send and read update as one unit of work
func WithTransactions(tx shared.TxRunner) Option {
	return func(s *ConversationService) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *ConversationService) {
		s.logger = logger
	}
}

// NewConversationService creates a new ConversationService
func NewConversationService(
	conversations messaging.ConversationRepository,
	messages messaging.MessageRepository,
	directory identity.DirectoryRepository,
	push messaging.PushChannel,
	opts ...Option,
) *ConversationService {
	s := &ConversationService{
		conversations: conversations,
		messages:      messages,
		directory:     directory,
		push:          push,
		tx:            shared.NoTx{},
		limit:         DefaultConversationLimit,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher routes domain events through the event bus. Without a
// publisher, sent messages go straight to the push channel.
func (s *ConversationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// LoadConversations lists the caller's conversations, most recent first,
// with the other participant's public profile and the caller's unread count.
func (s *ConversationService) LoadConversations(ctx context.Context) ([]ConversationResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "conversation", "load", telemetry.WithAttribute(telemetry.SpanAttrUserID, me.UserID))
	defer span.End()

	list, err := s.conversations.FindForUser(ctx, me.UserID, s.limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	others := lo.Uniq(lo.Map(list, func(c messaging.Conversation, _ int) uuid.UUID {
		other, _ := c.OtherParticipant(me.UserID)
		return other
	}))
	participants, err := s.participants(ctx, others)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	out := make([]ConversationResponse, len(list))
	for i := range list {
		other, _ := list[i].OtherParticipant(me.UserID)
		out[i] = ToConversationResponse(&list[i], me.UserID, participants[other])
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrResultCount, len(out))
	return out, nil
}

// participants loads public profiles keyed by ID. Users missing from the
// directory get a placeholder carrying only the ID.
func (s *ConversationService) participants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ParticipantResponse, error) {
	out := make(map[uuid.UUID]ParticipantResponse, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	profiles, err := s.directory.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(profiles, func(p identity.PublicProfile) uuid.UUID { return p.ID })
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out[id] = ToParticipantResponse(p)
		} else {
			out[id] = ParticipantResponse{ID: id}
		}
	}
	return out, nil
}

// loadParticipant fetches the conversation and checks the caller takes part in it
func (s *ConversationService) loadParticipant(ctx context.Context, me uuid.UUID, conversationID uuid.UUID) (*messaging.Conversation, uuid.UUID, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	other, err := conv.OtherParticipant(me)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return conv, other, nil
}

// LoadThread returns the full history of a conversation, oldest first, and
// marks the caller's unread messages as read.
func (s *ConversationService) LoadThread(ctx context.Context, conversationID uuid.UUID) (*ThreadResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "conversation", "load_thread",
		telemetry.WithAttribute(telemetry.SpanAttrConversationID, conversationID))
	defer span.End()

	at := s.now()
	conv, _, err := s.markRead(ctx, conversationID, me.UserID, at)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	other, _ := conv.OtherParticipant(me.UserID)

	history, err := s.messages.FindByConversation(ctx, conversationID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for i := range history {
		if history[i].IsUnreadFor(me.UserID) {
			history[i].MarkRead(at)
		}
	}

	participants, err := s.participants(ctx, []uuid.UUID{other})
	if err != nil {
		return nil, err
	}
	return &ThreadResponse{
		Conversation: ToConversationResponse(conv, me.UserID, participants[other]),
		Messages:     ToMessageResponses(history),
	}, nil
}

// Subscribe opens a push subscription for a conversation the caller takes part in
func (s *ConversationService) Subscribe(ctx context.Context, conversationID uuid.UUID) (messaging.Subscription, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.loadParticipant(ctx, me.UserID, conversationID); err != nil {
		return nil, err
	}
	return s.push.Subscribe(ctx, conversationID)
}

// SelectConversation loads the thread and opens its push subscription. The
// caller owns the returned subscription.
func (s *ConversationService) SelectConversation(ctx context.Context, conversationID uuid.UUID) (*ThreadResponse, messaging.Subscription, error) {
	thread, err := s.LoadThread(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	sub, err := s.push.Subscribe(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	return thread, sub, nil
}

// MarkRead flags every unread message addressed to the caller as read and
// zeroes the caller's unread counter.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID uuid.UUID) (*MarkReadResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	_, count, err := s.markRead(ctx, conversationID, me.UserID, s.now())
	if err != nil {
		return nil, err
	}
	return &MarkReadResponse{ConversationID: conversationID, Marked: count}, nil
}

// markRead flags the reader's unread messages and zeroes the reader's
// counter in one unit of work. It returns the conversation as stored.
func (s *ConversationService) markRead(ctx context.Context, conversationID, reader uuid.UUID, at time.Time) (*messaging.Conversation, int64, error) {
	var (
		conv  *messaging.Conversation
		count int64
	)
	err := s.write(ctx, func(ctx context.Context) error {
		var err error
		conv, _, err = s.loadParticipant(ctx, reader, conversationID)
		if err != nil {
			return err
		}
		hadUnread := conv.UnreadFor(reader) > 0
		count, err = s.messages.MarkRead(ctx, conv.ID, reader, at)
		if err != nil {
			return err
		}
		if count == 0 && !hadUnread {
			return nil
		}
		if err := conv.MarkReadBy(reader, count); err != nil {
			return err
		}
		return s.conversations.Save(ctx, conv)
	})
	if err != nil {
		return nil, 0, err
	}
	s.publishEvents(ctx, conv)
	return conv, count, nil
}

// write runs fn as one unit of work, starting over from a fresh load when a
// concurrent writer moved the conversation on
func (s *ConversationService) write(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		err = s.tx.RunInTx(ctx, fn)
		if !errors.Is(err, shared.ErrConflict) {
			return err
		}
		s.logger.Debug("conversation write raced, retrying", zap.Int("attempt", attempt))
	}
	return err
}

// SendMessage validates content, then stores the message together with the
// conversation preview and the receiver's unread counter in one unit of work.
// Live subscribers get the message only once that work has committed.
// Invalid content fails before any repository call.
func (s *ConversationService) SendMessage(ctx context.Context, req SendMessageRequest) (*MessageResponse, error) {
	content, err := messaging.ValidateContent(req.Content)
	if err != nil {
		return nil, err
	}
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "conversation", "send_message",
		telemetry.WithAttribute(telemetry.SpanAttrConversationID, req.ConversationID))
	defer span.End()

	var (
		conv *messaging.Conversation
		msg  *messaging.Message
	)
	err = s.write(ctx, func(ctx context.Context) error {
		var (
			receiver uuid.UUID
			err      error
		)
		conv, receiver, err = s.loadParticipant(ctx, me.UserID, req.ConversationID)
		if err != nil {
			return err
		}
		msg, err = messaging.NewMessage(conv.ID, me.UserID, receiver, content)
		if err != nil {
			return err
		}
		msg.CreatedAt = s.now()
		if err := s.messages.Create(ctx, msg); err != nil {
			return err
		}
		if err := conv.RecordMessage(msg); err != nil {
			return err
		}
		return s.conversations.Save(ctx, conv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.eventPublisher != nil {
		s.publishEvents(ctx, conv)
	} else {
		conv.ClearDomainEvents()
		if err := s.push.Publish(ctx, msg); err != nil {
			s.logger.Warn("Failed to push message",
				zap.String("conversation_id", conv.ID.String()),
				zap.Error(err))
		}
	}

	telemetry.AddEvent(span, "message_sent", telemetry.SpanAttrMessageID, msg.ID)
	resp := ToMessageResponse(msg)
	return &resp, nil
}

// publishEvents hands pending domain events to the bus. Delivery failures are
// logged; the write has already succeeded.
func (s *ConversationService) publishEvents(ctx context.Context, conv *messaging.Conversation) {
	events := conv.GetDomainEvents()
	conv.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish conversation events",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err))
	}
}

// SearchUsers finds other users whose display name contains term
func (s *ConversationService) SearchUsers(ctx context.Context, term string) ([]UserSearchResponse, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinSearchLength {
		return nil, ErrSearchTooShort
	}
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.directory.SearchByName(ctx, term, me.UserID, UserSearchLimit)
	if err != nil {
		return nil, err
	}
	return lo.Map(profiles, func(p identity.PublicProfile, _ int) UserSearchResponse {
		return ToParticipantResponse(p)
	}), nil
}

// StartConversation returns the existing conversation with another user or
// creates it.
func (s *ConversationService) StartConversation(ctx context.Context, req StartConversationRequest) (*ConversationResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if req.UserID == uuid.Nil || req.UserID == me.UserID {
		return nil, shared.NewDomainError("INVALID_PARTICIPANT", "Choose another user to message")
	}

	participants, err := s.directory.FindByIDs(ctx, []uuid.UUID{req.UserID})
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "User not found")
	}
	other := ToParticipantResponse(participants[0])

	conv, err := s.conversations.FindBetween(ctx, me.UserID, req.UserID)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		conv, err = messaging.NewConversation(me.UserID, req.UserID)
		if err != nil {
			return nil, err
		}
		if err := s.conversations.Save(ctx, conv); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	resp := ToConversationResponse(conv, me.UserID, other)
	return &resp, nil
}

// FilterConversations keeps the conversations whose participant name or last
// message preview contains term, case-insensitively. A blank term returns the
// input; no match returns an empty list.
func FilterConversations(list []ConversationResponse, term string) []ConversationResponse {
	if strings.TrimSpace(term) == "" {
		return list
	}
	return lo.Filter(list, func(c ConversationResponse, _ int) bool {
		return messaging.MatchesSearch(term, c.Participant.DisplayName, c.LastMessage)
	})
}
