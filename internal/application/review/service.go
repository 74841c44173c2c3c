// Package review implements client reviews of services and provider replies.
package review

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/review"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// Errors returned by the review service
var (
	ErrReviewNotFound       = shared.NewDomainError("NOT_FOUND", "Review not found")
	ErrServiceNotFound      = shared.NewDomainError("NOT_FOUND", "Service not found")
	ErrBookingNotReviewable = shared.NewDomainError("INVALID_STATE", "Only your completed bookings of this service can be reviewed")
)

// Service handles reviews
type Service struct {
	reviews  review.Repository
	services catalog.ServiceRepository
	bookings trade.BookingRepository
	logger   *zap.Logger
}

// NewService creates a new review Service
func NewService(reviews review.Repository, services catalog.ServiceRepository, bookings trade.BookingRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reviews: reviews, services: services, bookings: bookings, logger: logger}
}

// Create stores a client's review of a service. When a booking is given it
// must be the caller's completed booking of that service.
func (s *Service) Create(ctx context.Context, req CreateReviewRequest) (*ReviewResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if me.Role != identity.RoleClient {
		return nil, shared.NewDomainError("FORBIDDEN", "Only clients can write reviews")
	}

	listing, err := s.services.FindByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	if req.BookingID != nil {
		booking, err := s.bookings.FindByID(ctx, *req.BookingID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, ErrBookingNotReviewable
			}
			return nil, err
		}
		if booking.ClientID != me.UserID || booking.ServiceID != listing.ID || booking.Status != trade.BookingStatusCompleted {
			return nil, ErrBookingNotReviewable
		}
	}

	r, err := review.NewReview(listing.ID, listing.ProviderID, me.UserID, req.BookingID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Save(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("review created",
		zap.String("review_id", r.ID.String()),
		zap.String("provider_id", r.ProviderID.String()),
		zap.Int("rating", r.Rating))

	resp := ToReviewResponse(r)
	return &resp, nil
}

// Reply sets the reviewed provider's reply
func (s *Service) Reply(ctx context.Context, id uuid.UUID, req ReplyRequest) (*ReviewResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Reply(me.UserID, req.Reply); err != nil {
		return nil, err
	}
	if err := s.reviews.Save(ctx, r); err != nil {
		return nil, err
	}
	resp := ToReviewResponse(r)
	return &resp, nil
}

// Delete removes a review. Only its author may delete it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	me, err := identity.Require(ctx)
	if err != nil {
		return err
	}
	r, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if r.ClientID != me.UserID {
		return shared.NewDomainError("FORBIDDEN", "Only the author can delete this review")
	}
	return s.reviews.Delete(ctx, id)
}

// ListMine lists reviews received by the calling provider
func (s *Service) ListMine(ctx context.Context, req ListRequest) (*shared.Paginated[ReviewResponse], error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if me.Role != identity.RoleProvider {
		return nil, shared.NewDomainError("FORBIDDEN", "Only providers receive reviews")
	}
	return s.ListForProvider(ctx, me.UserID, req)
}

// ListForProvider lists the reviews of a provider, newest first
func (s *Service) ListForProvider(ctx context.Context, providerID uuid.UUID, req ListRequest) (*shared.Paginated[ReviewResponse], error) {
	filter := req.Filter()
	items, total, err := s.reviews.FindByProvider(ctx, providerID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToReviewResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListForService lists the reviews of a service, newest first
func (s *Service) ListForService(ctx context.Context, serviceID uuid.UUID, req ListRequest) (*shared.Paginated[ReviewResponse], error) {
	filter := req.Filter()
	items, total, err := s.reviews.FindByService(ctx, serviceID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToReviewResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Summary returns the review count and average rating of a provider,
// rounded to one decimal
func (s *Service) Summary(ctx context.Context, providerID uuid.UUID) (*SummaryResponse, error) {
	sum, err := s.reviews.SummaryForProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return &SummaryResponse{
		ProviderID: providerID,
		Count:      sum.Count,
		Average:    math.Round(sum.Average*10) / 10,
	}, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	r, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return r, nil
}
