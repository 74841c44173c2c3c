package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ListRequest represents a paged listing of bookings or orders
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Filter converts the request into a repository filter
func (r ListRequest) Filter() shared.Filter {
	return shared.DefaultFilter().
		WithPage(r.Page, r.PageSize).
		WithOrder(r.OrderBy, r.OrderDir).
		Where("status", r.Status)
}

// CreateBookingRequest represents a request to book a service
type CreateBookingRequest struct {
	ServiceID   uuid.UUID `json:"service_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Notes       string    `json:"notes" binding:"max=2000"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID          uuid.UUID       `json:"id"`
	ClientID    uuid.UUID       `json:"client_id"`
	ProviderID  uuid.UUID       `json:"provider_id"`
	ServiceID   uuid.UUID       `json:"service_id"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	Notes       string          `json:"notes,omitempty"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ToBookingResponse converts a booking to its response
func ToBookingResponse(b *trade.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		ClientID:    b.ClientID,
		ProviderID:  b.ProviderID,
		ServiceID:   b.ServiceID,
		ScheduledAt: b.ScheduledAt,
		Notes:       b.Notes,
		TotalPrice:  b.TotalPrice,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		Version:     b.Version,
	}
}

// ToBookingResponses converts a slice of bookings
func ToBookingResponses(items []trade.Booking) []BookingResponse {
	return lo.Map(items, func(b trade.Booking, _ int) BookingResponse {
		return ToBookingResponse(&b)
	})
}

// CreateOrderRequest represents a request to buy a product
type CreateOrderRequest struct {
	ProductID       uuid.UUID `json:"product_id" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required,min=1"`
	ShippingAddress string    `json:"shipping_address" binding:"required,max=500"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID       `json:"id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        int             `json:"quantity"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// ToOrderResponse converts an order to its response
func ToOrderResponse(o *trade.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		ProductID:       o.ProductID,
		Quantity:        o.Quantity,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Version:         o.Version,
	}
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(items []trade.Order) []OrderResponse {
	return lo.Map(items, func(o trade.Order, _ int) OrderResponse {
		return ToOrderResponse(&o)
	})
}
