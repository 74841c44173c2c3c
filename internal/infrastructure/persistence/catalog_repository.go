package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormServiceRepository implements catalog.ServiceRepository using GORM
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// FindByID finds a service by its ID
func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var service catalog.Service
	if err := conn(ctx, r.db).First(&service, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &service, nil
}

// FindByProvider lists a provider's services
func (r *GormServiceRepository) FindByProvider(ctx context.Context, providerID uuid.UUID, filter shared.Filter) ([]catalog.Service, int64, error) {
	query := conn(ctx, r.db).Model(&catalog.Service{}).Where("provider_id = ?", providerID)
	return findPage[catalog.Service](applyListingFilters(query, filter), filter, ListingSortFields, "created_at")
}

// FindActive lists active services across providers
func (r *GormServiceRepository) FindActive(ctx context.Context, filter shared.Filter) ([]catalog.Service, int64, error) {
	query := conn(ctx, r.db).Model(&catalog.Service{}).Where("status = ?", catalog.ListingStatusActive)
	return findPage[catalog.Service](applyListingFilters(query, filter), filter, ListingSortFields, "created_at")
}

// Save creates or updates a service with an optimistic version check
func (r *GormServiceRepository) Save(ctx context.Context, service *catalog.Service) error {
	return saveVersioned(ctx, r.db, service)
}

// Delete removes a service
func (r *GormServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&catalog.Service{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := conn(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// FindBySeller lists a seller's products
func (r *GormProductRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := conn(ctx, r.db).Model(&catalog.Product{}).Where("seller_id = ?", sellerID)
	return findPage[catalog.Product](applyListingFilters(query, filter), filter, ListingSortFields, "created_at")
}

// FindActive lists active products across sellers
func (r *GormProductRepository) FindActive(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := conn(ctx, r.db).Model(&catalog.Product{}).Where("status = ?", catalog.ListingStatusActive)
	return findPage[catalog.Product](applyListingFilters(query, filter), filter, ListingSortFields, "created_at")
}

// FindLowStock lists a seller's products at or below their threshold
func (r *GormProductRepository) FindLowStock(ctx context.Context, sellerID uuid.UUID) ([]catalog.Product, error) {
	products := make([]catalog.Product, 0)
	if err := conn(ctx, r.db).
		Where("seller_id = ? AND stock <= low_stock_threshold", sellerID).
		Order("stock ASC, name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return saveVersioned(ctx, r.db, product)
}

// Delete removes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&catalog.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ catalog.ServiceRepository = (*GormServiceRepository)(nil)
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
)
