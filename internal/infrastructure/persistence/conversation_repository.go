package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/messaging"
	"gorm.io/gorm"
)

// GormConversationRepository implements messaging.ConversationRepository using GORM
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GormConversationRepository
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// FindByID finds a conversation by its ID
func (r *GormConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*messaging.Conversation, error) {
	var conversation messaging.Conversation
	if err := conn(ctx, r.db).First(&conversation, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &conversation, nil
}

// FindForUser lists conversations involving userID, most recent activity first.
// Conversations without messages sort last.
func (r *GormConversationRepository) FindForUser(ctx context.Context, userID uuid.UUID, limit int) ([]messaging.Conversation, error) {
	conversations := make([]messaging.Conversation, 0)
	query := conn(ctx, r.db).
		Where("participant_one = ? OR participant_two = ?", userID, userID).
		Order("last_message_at IS NULL, last_message_at DESC, created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

// FindBetween finds the conversation between two users in either order
func (r *GormConversationRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*messaging.Conversation, error) {
	var conversation messaging.Conversation
	if err := conn(ctx, r.db).
		Where("(participant_one = ? AND participant_two = ?) OR (participant_one = ? AND participant_two = ?)", a, b, b, a).
		First(&conversation).Error; err != nil {
		return nil, notFound(err)
	}
	return &conversation, nil
}

// Save creates a conversation or updates it under its optimistic lock
func (r *GormConversationRepository) Save(ctx context.Context, conversation *messaging.Conversation) error {
	return saveVersioned(ctx, r.db, conversation)
}

// GormMessageRepository implements messaging.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create stores a new message
func (r *GormMessageRepository) Create(ctx context.Context, message *messaging.Message) error {
	return conn(ctx, r.db).Create(message).Error
}

// FindByConversation lists a conversation's messages, oldest first
func (r *GormMessageRepository) FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]messaging.Message, error) {
	messages := make([]messaging.Message, 0)
	if err := conn(ctx, r.db).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead sets read_at on every unread message addressed to readerID
func (r *GormMessageRepository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, at time.Time) (int64, error) {
	result := conn(ctx, r.db).
		Model(&messaging.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", at)
	return result.RowsAffected, result.Error
}

var (
	_ messaging.ConversationRepository = (*GormConversationRepository)(nil)
	_ messaging.MessageRepository      = (*GormMessageRepository)(nil)
)
