package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// ServiceRepository defines the interface for service listing persistence
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)

	// FindByProvider lists a provider's services
	FindByProvider(ctx context.Context, providerID uuid.UUID, filter shared.Filter) ([]Service, int64, error)

	// FindActive lists active services across providers (client browsing)
	FindActive(ctx context.Context, filter shared.Filter) ([]Service, int64, error)

	Save(ctx context.Context, service *Service) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySeller lists a seller's products
	FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]Product, int64, error)

	// FindActive lists active products across sellers (client browsing)
	FindActive(ctx context.Context, filter shared.Filter) ([]Product, int64, error)

	// FindLowStock lists a seller's products at or below their threshold
	FindLowStock(ctx context.Context, sellerID uuid.UUID) ([]Product, error)

	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
