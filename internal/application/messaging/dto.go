package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/messaging"
)

// StartConversationRequest opens or reuses a conversation with another user
type StartConversationRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// SendMessageRequest represents a request to post a message
type SendMessageRequest struct {
	ConversationID uuid.UUID `json:"-"`
	Content        string    `json:"content" binding:"max=5000"`
}

// ParticipantResponse is the public view of the other participant
type ParticipantResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        string    `json:"role,omitempty"`
}

// ConversationResponse is one entry of the conversation list, seen by the caller
type ConversationResponse struct {
	ID            uuid.UUID           `json:"id"`
	Participant   ParticipantResponse `json:"participant"`
	LastMessage   string              `json:"last_message"`
	LastMessageAt *time.Time          `json:"last_message_at"`
	UnreadCount   int                 `json:"unread_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

// MessageResponse represents a message in API responses
type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	ReceiverID     uuid.UUID  `json:"receiver_id"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// ThreadResponse is a selected conversation with its full history
type ThreadResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Messages     []MessageResponse    `json:"messages"`
}

// MarkReadResponse reports how many messages were flagged as read
type MarkReadResponse struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Marked         int64     `json:"marked"`
}

// UserSearchResponse is one directory hit
type UserSearchResponse = ParticipantResponse

// ToMessageResponse converts a domain message to a response DTO
func ToMessageResponse(m *messaging.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		ReadAt:         m.ReadAt,
	}
}

// ToMessageResponses converts a slice of messages
func ToMessageResponses(messages []messaging.Message) []MessageResponse {
	out := make([]MessageResponse, len(messages))
	for i := range messages {
		out[i] = ToMessageResponse(&messages[i])
	}
	return out
}

// ToParticipantResponse converts a public profile
func ToParticipantResponse(p identity.PublicProfile) ParticipantResponse {
	return ParticipantResponse{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Role:        string(p.Role),
	}
}

// ToConversationResponse builds the caller's view of a conversation
func ToConversationResponse(c *messaging.Conversation, viewer uuid.UUID, other ParticipantResponse) ConversationResponse {
	return ConversationResponse{
		ID:            c.ID,
		Participant:   other,
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   c.UnreadFor(viewer),
		CreatedAt:     c.CreatedAt,
	}
}
