// Package catalog implements the provider service dashboard, the seller
// product dashboard and inventory.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrNotOwner is returned when the caller does not own the listing
var ErrNotOwner = shared.NewDomainError("FORBIDDEN", "You do not own this listing")

// requireRole returns the caller if it has the given role
func requireRole(ctx context.Context, role identity.Role) (identity.Identity, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return identity.Identity{}, err
	}
	if me.Role != role {
		return identity.Identity{}, shared.NewDomainError("FORBIDDEN", "Only "+string(role)+"s can manage this listing")
	}
	return me, nil
}

// ListingService handles service listings owned by providers
type ListingService struct {
	services catalog.ServiceRepository
	logger   *zap.Logger
}

// NewListingService creates a new ListingService
func NewListingService(services catalog.ServiceRepository, logger *zap.Logger) *ListingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{services: services, logger: logger}
}

// Browse lists active services of every provider
func (s *ListingService) Browse(ctx context.Context, req ListRequest) (*shared.Paginated[ServiceResponse], error) {
	filter := req.Filter()
	delete(filter.Filters, "status")
	items, total, err := s.services.FindActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToServiceResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListMine lists the caller's services
func (s *ListingService) ListMine(ctx context.Context, req ListRequest) (*shared.Paginated[ServiceResponse], error) {
	me, err := requireRole(ctx, identity.RoleProvider)
	if err != nil {
		return nil, err
	}
	filter := req.Filter()
	items, total, err := s.services.FindByProvider(ctx, me.UserID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToServiceResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetByID returns a service. Inactive services are only visible to their owner.
func (s *ListingService) GetByID(ctx context.Context, id uuid.UUID) (*ServiceResponse, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.Status != catalog.ListingStatusActive {
		me, ok := identity.FromContext(ctx)
		if !ok || !svc.IsOwnedBy(me.UserID) {
			return nil, shared.NewDomainError("NOT_FOUND", "Service not found")
		}
	}
	resp := ToServiceResponse(svc)
	return &resp, nil
}

// Create creates a service owned by the caller
func (s *ListingService) Create(ctx context.Context, req CreateServiceRequest) (*ServiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "listing", "create")
	defer span.End()

	me, err := requireRole(ctx, identity.RoleProvider)
	if err != nil {
		return nil, err
	}
	svc, err := catalog.NewService(me.UserID, req.Name, req.Category, req.Price, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		if err := svc.Update(req.Name, req.Description, req.Category, req.Price, req.DurationMinutes); err != nil {
			return nil, err
		}
	}
	if err := s.services.Save(ctx, svc); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("service created", zap.String("service_id", svc.ID.String()), zap.String("provider_id", me.UserID.String()))
	resp := ToServiceResponse(svc)
	return &resp, nil
}

// Update replaces the fields of one of the caller's services
func (s *ListingService) Update(ctx context.Context, id uuid.UUID, req UpdateServiceRequest) (*ServiceResponse, error) {
	svc, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := svc.Update(req.Name, req.Description, req.Category, req.Price, req.DurationMinutes); err != nil {
		return nil, err
	}
	if err := s.services.Save(ctx, svc); err != nil {
		return nil, err
	}
	resp := ToServiceResponse(svc)
	return &resp, nil
}

// ToggleStatus flips a service between active and inactive
func (s *ListingService) ToggleStatus(ctx context.Context, id uuid.UUID) (*ServiceResponse, error) {
	svc, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.ToggleStatus()
	if err := s.services.Save(ctx, svc); err != nil {
		return nil, err
	}
	resp := ToServiceResponse(svc)
	return &resp, nil
}

// Delete removes one of the caller's services
func (s *ListingService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	if err := s.services.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("service deleted", zap.String("service_id", id.String()))
	return nil
}

func (s *ListingService) owned(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	me, err := requireRole(ctx, identity.RoleProvider)
	if err != nil {
		return nil, err
	}
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !svc.IsOwnedBy(me.UserID) {
		return nil, ErrNotOwner
	}
	return svc, nil
}
