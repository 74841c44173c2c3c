// Package review holds client reviews of provider services.
package review

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Review is a client's rating of a completed service
type Review struct {
	shared.BaseAggregateRoot
	ServiceID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProviderID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	BookingID     *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Rating        int        `gorm:"not null"`
	Comment       string     `gorm:"type:text"`
	ProviderReply string     `gorm:"type:text"`
	RepliedAt     *time.Time
}

// TableName returns the table name for GORM
func (Review) TableName() string {
	return "reviews"
}

// NewReview creates a review with a 1..5 rating
func NewReview(serviceID, providerID, clientID uuid.UUID, bookingID *uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	if clientID == providerID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cannot review your own service")
	}
	if utf8.RuneCountInString(comment) > 2000 {
		return nil, shared.NewDomainError("INVALID_COMMENT", "Comment cannot exceed 2000 characters")
	}
	return &Review{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ServiceID:         serviceID,
		ProviderID:        providerID,
		ClientID:          clientID,
		BookingID:         bookingID,
		Rating:            rating,
		Comment:           strings.TrimSpace(comment),
	}, nil
}

// Reply sets the provider's public reply
func (r *Review) Reply(providerID uuid.UUID, reply string) error {
	if providerID != r.ProviderID {
		return shared.NewDomainError("FORBIDDEN", "Only the reviewed provider can reply")
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return shared.NewDomainError("INVALID_REPLY", "Reply cannot be empty")
	}
	now := time.Now()
	r.ProviderReply = reply
	r.RepliedAt = &now
	r.MarkChanged()
	return nil
}

// Summary aggregates ratings for a provider
type Summary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// Repository defines the interface for review persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// FindByProvider lists reviews about a provider
	FindByProvider(ctx context.Context, providerID uuid.UUID, filter shared.Filter) ([]Review, int64, error)

	// FindByService lists reviews of one service
	FindByService(ctx context.Context, serviceID uuid.UUID, filter shared.Filter) ([]Review, int64, error)

	// SummaryForProvider computes count and average rating
	SummaryForProvider(ctx context.Context, providerID uuid.UUID) (Summary, error)

	Save(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}
