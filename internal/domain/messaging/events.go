package messaging

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeConversation = "Conversation"

// Event type constants
const (
	EventTypeMessageSent  = "MessageSent"
	EventTypeMessagesRead = "MessagesRead"
)

// MessageSentEvent is published after a message is stored
type MessageSentEvent struct {
	shared.BaseDomainEvent
	Message Message `json:"message"`
}

// NewMessageSentEvent creates a new MessageSentEvent
func NewMessageSentEvent(c *Conversation, msg *Message) *MessageSentEvent {
	return &MessageSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessageSent, AggregateTypeConversation, c.ID, msg.SenderID),
		Message:         *msg,
	}
}

// MessagesReadEvent is published when a participant reads the conversation
type MessagesReadEvent struct {
	shared.BaseDomainEvent
	ReaderID uuid.UUID `json:"reader_id"`
	Count    int64     `json:"count"`
}

// NewMessagesReadEvent creates a new MessagesReadEvent
func NewMessagesReadEvent(c *Conversation, readerID uuid.UUID, count int64) *MessagesReadEvent {
	return &MessagesReadEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessagesRead, AggregateTypeConversation, c.ID, readerID),
		ReaderID:        readerID,
		Count:           count,
	}
}
