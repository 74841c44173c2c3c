package trade

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeBooking = "Booking"
	AggregateTypeOrder   = "Order"
)

// Event type constants
const (
	EventTypeBookingStatusChanged = "BookingStatusChanged"
	EventTypeOrderStatusChanged   = "OrderStatusChanged"
)

// BookingStatusChangedEvent is published when a booking moves between states
type BookingStatusChangedEvent struct {
	shared.BaseDomainEvent
	ClientID   uuid.UUID     `json:"client_id"`
	ProviderID uuid.UUID     `json:"provider_id"`
	From       BookingStatus `json:"from"`
	To         BookingStatus `json:"to"`
}

// NewBookingStatusChangedEvent creates a new BookingStatusChangedEvent
func NewBookingStatusChangedEvent(b *Booking, from BookingStatus, actorID uuid.UUID) *BookingStatusChangedEvent {
	return &BookingStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingStatusChanged, AggregateTypeBooking, b.ID, actorID),
		ClientID:        b.ClientID,
		ProviderID:      b.ProviderID,
		From:            from,
		To:              b.Status,
	}
}

// OrderStatusChangedEvent is published when an order moves between states
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	BuyerID   uuid.UUID   `json:"buyer_id"`
	SellerID  uuid.UUID   `json:"seller_id"`
	ProductID uuid.UUID   `json:"product_id"`
	Quantity  int         `json:"quantity"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from OrderStatus, actorID uuid.UUID) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, actorID),
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		ProductID:       o.ProductID,
		Quantity:        o.Quantity,
		From:            from,
		To:              o.Status,
	}
}
