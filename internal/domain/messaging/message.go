// Package messaging models two-party conversations, their messages and the
// push channel that delivers new messages to open threads.
package messaging

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// MaxMessageLength is the maximum number of characters in a message body
const MaxMessageLength = 5000

// ErrEmptyMessage is returned for empty or whitespace-only content
var ErrEmptyMessage = shared.NewDomainError("INVALID_INPUT", "Message cannot be empty")

// Message is a single chat message between two users
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null" json:"sender_id"`
	ReceiverID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"receiver_id"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// TableName returns the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// ValidateContent trims content and rejects empty or oversized bodies
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return "", shared.NewDomainError("INVALID_INPUT", "Message is too long")
	}
	return trimmed, nil
}

// NewMessage creates a message from sender to receiver
func NewMessage(conversationID, senderID, receiverID uuid.UUID, content string) (*Message, error) {
	body, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cannot send a message to yourself")
	}
	return &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        body,
		CreatedAt:      time.Now(),
	}, nil
}

// IsUnreadFor reports whether the message is addressed to userID and not yet read
func (m *Message) IsUnreadFor(userID uuid.UUID) bool {
	return m.ReceiverID == userID && m.ReadAt == nil
}

// MarkRead sets the read timestamp if not already set
func (m *Message) MarkRead(at time.Time) {
	if m.ReadAt == nil {
		m.ReadAt = &at
	}
}
