package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/review"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/samber/lo"
)

// CreateReviewRequest represents a client's review of a service
type CreateReviewRequest struct {
	ServiceID uuid.UUID  `json:"service_id" binding:"required"`
	BookingID *uuid.UUID `json:"booking_id"`
	Rating    int        `json:"rating" binding:"required,min=1,max=5"`
	Comment   string     `json:"comment" binding:"max=2000"`
}

// ReplyRequest represents a provider's reply to a review
type ReplyRequest struct {
	Reply string `json:"reply" binding:"required,max=2000"`
}

// ListRequest represents a paged review listing
type ListRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Filter converts the request into a repository filter
func (r ListRequest) Filter() shared.Filter {
	return shared.DefaultFilter().WithPage(r.Page, r.PageSize)
}

// ReviewResponse represents a review in API responses
type ReviewResponse struct {
	ID            uuid.UUID  `json:"id"`
	ServiceID     uuid.UUID  `json:"service_id"`
	ProviderID    uuid.UUID  `json:"provider_id"`
	ClientID      uuid.UUID  `json:"client_id"`
	BookingID     *uuid.UUID `json:"booking_id,omitempty"`
	Rating        int        `json:"rating"`
	Comment       string     `json:"comment"`
	ProviderReply string     `json:"provider_reply,omitempty"`
	RepliedAt     *time.Time `json:"replied_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SummaryResponse is the rating summary of a provider
type SummaryResponse struct {
	ProviderID uuid.UUID `json:"provider_id"`
	Count      int64     `json:"count"`
	Average    float64   `json:"average"`
}

// ToReviewResponse converts a review to its response
func ToReviewResponse(r *review.Review) ReviewResponse {
	return ReviewResponse{
		ID:            r.ID,
		ServiceID:     r.ServiceID,
		ProviderID:    r.ProviderID,
		ClientID:      r.ClientID,
		BookingID:     r.BookingID,
		Rating:        r.Rating,
		Comment:       r.Comment,
		ProviderReply: r.ProviderReply,
		RepliedAt:     r.RepliedAt,
		CreatedAt:     r.CreatedAt,
	}
}

// ToReviewResponses converts a slice of reviews
func ToReviewResponses(items []review.Review) []ReviewResponse {
	return lo.Map(items, func(r review.Review, _ int) ReviewResponse {
		return ToReviewResponse(&r)
	})
}
