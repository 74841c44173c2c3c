package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormBookingRepository implements trade.BookingRepository using GORM
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID finds a booking by its ID
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Booking, error) {
	var booking trade.Booking
	if err := conn(ctx, r.db).First(&booking, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

// FindByClient lists bookings made by a client
func (r *GormBookingRepository) FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]trade.Booking, int64, error) {
	query := conn(ctx, r.db).Model(&trade.Booking{}).Where("client_id = ?", clientID)
	return findPage[trade.Booking](applyStatusFilter(query, filter), filter, BookingSortFields, "scheduled_at")
}

// FindByProvider lists bookings received by a provider
func (r *GormBookingRepository) FindByProvider(ctx context.Context, providerID uuid.UUID, filter shared.Filter) ([]trade.Booking, int64, error) {
	query := conn(ctx, r.db).Model(&trade.Booking{}).Where("provider_id = ?", providerID)
	return findPage[trade.Booking](applyStatusFilter(query, filter), filter, BookingSortFields, "scheduled_at")
}

// Save creates a booking or updates it under its optimistic lock
func (r *GormBookingRepository) Save(ctx context.Context, booking *trade.Booking) error {
	return saveVersioned(ctx, r.db, booking)
}

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := conn(ctx, r.db).First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindByBuyer lists orders placed by a buyer
func (r *GormOrderRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]trade.Order, int64, error) {
	query := conn(ctx, r.db).Model(&trade.Order{}).Where("buyer_id = ?", buyerID)
	return findPage[trade.Order](applyStatusFilter(query, filter), filter, OrderSortFields, "created_at")
}

// FindBySeller lists orders received by a seller
func (r *GormOrderRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]trade.Order, int64, error) {
	query := conn(ctx, r.db).Model(&trade.Order{}).Where("seller_id = ?", sellerID)
	return findPage[trade.Order](applyStatusFilter(query, filter), filter, OrderSortFields, "created_at")
}

// Save creates an order or updates it under its optimistic lock
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return saveVersioned(ctx, r.db, order)
}

var (
	_ trade.BookingRepository = (*GormBookingRepository)(nil)
	_ trade.OrderRepository   = (*GormOrderRepository)(nil)
)
