package messaging

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// previewLength is how many characters of the last message are kept on the conversation
const previewLength = 120

// Conversation is a persistent pairing of two users with denormalized preview
// metadata. It is the aggregate root for messaging.
type Conversation struct {
	shared.BaseAggregateRoot
	ParticipantOne uuid.UUID  `gorm:"type:uuid;not null;index"`
	ParticipantTwo uuid.UUID  `gorm:"type:uuid;not null;index"`
	LastMessage    string     `gorm:"type:text"`
	LastMessageAt  *time.Time `gorm:"index"`
	UnreadCountOne int        `gorm:"not null;default:0"`
	UnreadCountTwo int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Conversation) TableName() string {
	return "conversations"
}

// NewConversation creates a conversation between two distinct users
func NewConversation(a, b uuid.UUID) (*Conversation, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTICIPANT", "Participants cannot be empty")
	}
	if a == b {
		return nil, shared.NewDomainError("INVALID_PARTICIPANT", "Cannot start a conversation with yourself")
	}
	return &Conversation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ParticipantOne:    a,
		ParticipantTwo:    b,
	}, nil
}

// IsParticipant reports whether userID takes part in the conversation
func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	return userID == c.ParticipantOne || userID == c.ParticipantTwo
}

// OtherParticipant resolves the counterpart of userID
func (c *Conversation) OtherParticipant(userID uuid.UUID) (uuid.UUID, error) {
	switch userID {
	case c.ParticipantOne:
		return c.ParticipantTwo, nil
	case c.ParticipantTwo:
		return c.ParticipantOne, nil
	}
	return uuid.Nil, shared.NewDomainError("FORBIDDEN", "Not a participant of this conversation")
}

// UnreadFor returns the unread counter for userID
func (c *Conversation) UnreadFor(userID uuid.UUID) int {
	switch userID {
	case c.ParticipantOne:
		return c.UnreadCountOne
	case c.ParticipantTwo:
		return c.UnreadCountTwo
	}
	return 0
}

// RecordMessage updates preview, ordering timestamp and the receiver's unread
// counter for a newly created message.
func (c *Conversation) RecordMessage(msg *Message) error {
	if msg.ConversationID != c.ID {
		return shared.NewDomainError("INVALID_INPUT", "Message belongs to another conversation")
	}
	if !c.IsParticipant(msg.SenderID) || !c.IsParticipant(msg.ReceiverID) {
		return shared.NewDomainError("FORBIDDEN", "Not a participant of this conversation")
	}

	c.LastMessage = preview(msg.Content)
	at := msg.CreatedAt
	c.LastMessageAt = &at
	if msg.ReceiverID == c.ParticipantOne {
		c.UnreadCountOne++
	} else {
		c.UnreadCountTwo++
	}
	c.MarkChanged()

	c.AddDomainEvent(NewMessageSentEvent(c, msg))
	return nil
}

// MarkReadBy zeroes the unread counter of userID. count is the number of
// messages that were flagged as read.
func (c *Conversation) MarkReadBy(userID uuid.UUID, count int64) error {
	switch userID {
	case c.ParticipantOne:
		c.UnreadCountOne = 0
	case c.ParticipantTwo:
		c.UnreadCountTwo = 0
	default:
		return shared.NewDomainError("FORBIDDEN", "Not a participant of this conversation")
	}
	c.MarkChanged()
	if count > 0 {
		c.AddDomainEvent(NewMessagesReadEvent(c, userID, count))
	}
	return nil
}

// MatchesSearch reports whether term matches the counterpart's name or the
// last message preview, case-insensitively. A blank term matches everything.
func MatchesSearch(term, otherName, lastMessage string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(otherName), term) ||
		strings.Contains(strings.ToLower(lastMessage), term)
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "…"
}
