package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// BookingRepository defines the interface for booking persistence
type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByClient lists bookings made by a client
	FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]Booking, int64, error)

	// FindByProvider lists bookings received by a provider
	FindByProvider(ctx context.Context, providerID uuid.UUID, filter shared.Filter) ([]Booking, int64, error)

	Save(ctx context.Context, booking *Booking) error
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByBuyer lists orders placed by a buyer
	FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// FindBySeller lists orders received by a seller
	FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	Save(ctx context.Context, order *Order) error
}
