package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConversationRepository defines the interface for conversation persistence
type ConversationRepository interface {
	// FindByID finds a conversation by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Conversation, error)

	// FindForUser lists conversations involving userID, most recent activity first
	FindForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Conversation, error)

	// FindBetween finds the conversation between two users in either order
	FindBetween(ctx context.Context, a, b uuid.UUID) (*Conversation, error)

	// Save creates or updates a conversation
	Save(ctx context.Context, conversation *Conversation) error
}

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	// Create stores a new message
	Create(ctx context.Context, message *Message) error

	// FindByConversation lists a conversation's messages, oldest first
	FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]Message, error)

	// MarkRead sets read_at on every unread message addressed to readerID in
	// the conversation and returns how many rows changed
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, at time.Time) (int64, error)
}
