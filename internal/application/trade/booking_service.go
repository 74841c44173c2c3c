// Package trade implements bookings of provider services and orders of
// seller products.
package trade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Errors returned by the trade services
var (
	ErrBookingNotFound   = shared.NewDomainError("NOT_FOUND", "Booking not found")
	ErrOrderNotFound     = shared.NewDomainError("NOT_FOUND", "Order not found")
	ErrListingNotFound   = shared.NewDomainError("NOT_FOUND", "Listing not found or no longer available")
	ErrNotAllowedForRole = shared.NewDomainError("FORBIDDEN", "This action is not available for your role")
)

// BookingService handles the booking lifecycle between clients and providers
type BookingService struct {
	bookings       trade.BookingRepository
	services       catalog.ServiceRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(bookings trade.BookingRepository, services catalog.ServiceRepository, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{bookings: bookings, services: services, logger: logger}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BookingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create books an active service for the calling client. Price and provider
// are taken from the listing, never from the request.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*BookingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "booking", "create")
	defer span.End()

	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if me.Role != identity.RoleClient {
		return nil, ErrNotAllowedForRole
	}

	listing, err := s.services.FindByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if listing.Status != catalog.ListingStatusActive {
		return nil, ErrListingNotFound
	}

	booking, err := trade.NewBooking(me.UserID, listing.ProviderID, listing.ID, req.ScheduledAt, listing.Price, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, booking); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrBookingID, booking.ID)
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("service_id", listing.ID.String()),
		zap.String("client_id", me.UserID.String()))

	resp := ToBookingResponse(booking)
	return &resp, nil
}

// ListMine lists bookings made by the calling client, or received by the
// calling provider
func (s *BookingService) ListMine(ctx context.Context, req ListRequest) (*shared.Paginated[BookingResponse], error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	filter := req.Filter()

	var (
		items []trade.Booking
		total int64
	)
	switch me.Role {
	case identity.RoleClient:
		items, total, err = s.bookings.FindByClient(ctx, me.UserID, filter)
	case identity.RoleProvider:
		items, total, err = s.bookings.FindByProvider(ctx, me.UserID, filter)
	default:
		return nil, ErrNotAllowedForRole
	}
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToBookingResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns a booking the caller is a party to
func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*BookingResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := s.load(ctx, id, me)
	if err != nil {
		return nil, err
	}
	resp := ToBookingResponse(booking)
	return &resp, nil
}

// Confirm accepts a pending booking. Provider only.
func (s *BookingService) Confirm(ctx context.Context, id uuid.UUID) (*BookingResponse, error) {
	return s.transition(ctx, id, trade.BookingStatusConfirmed, true)
}

// Complete marks a confirmed booking as done. Provider only.
func (s *BookingService) Complete(ctx context.Context, id uuid.UUID) (*BookingResponse, error) {
	return s.transition(ctx, id, trade.BookingStatusCompleted, true)
}

// Cancel cancels a pending or confirmed booking. Either party may cancel.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID) (*BookingResponse, error) {
	return s.transition(ctx, id, trade.BookingStatusCancelled, false)
}

func (s *BookingService) transition(ctx context.Context, id uuid.UUID, target trade.BookingStatus, providerOnly bool) (*BookingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "booking", string(target),
		telemetry.WithAttribute(telemetry.SpanAttrBookingID, id))
	defer span.End()

	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := s.load(ctx, id, me)
	if err != nil {
		return nil, err
	}
	if providerOnly && booking.ProviderID != me.UserID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the provider can move this booking to "+string(target))
	}
	if err := booking.TransitionTo(target, me.UserID); err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, booking); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishEvents(ctx, booking)

	s.logger.Info("booking status changed",
		zap.String("booking_id", id.String()),
		zap.String("status", string(booking.Status)),
		zap.String("actor_id", me.UserID.String()))
	telemetry.SetOK(span)

	resp := ToBookingResponse(booking)
	return &resp, nil
}

// load hides bookings the caller is not a party to behind NOT_FOUND
func (s *BookingService) load(ctx context.Context, id uuid.UUID, me identity.Identity) (*trade.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !booking.IsParty(me.UserID) {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *BookingService) publishEvents(ctx context.Context, booking *trade.Booking) {
	defer booking.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, booking.GetDomainEvents()...); err != nil {
		// The booking is already saved; a failed notification is logged only
		s.logger.Warn("failed to publish booking events",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err))
	}
}
