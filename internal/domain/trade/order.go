package trade

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a product order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid reports whether the status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusProcessing || target == OrderStatusCancelled
	case OrderStatusProcessing:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// Order is a client's purchase of a seller's product
type Order struct {
	shared.BaseAggregateRoot
	BuyerID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity        int             `gorm:"not null"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ShippingAddress string          `gorm:"type:text"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a pending order priced at unitPrice * quantity
func NewOrder(buyerID, sellerID, productID uuid.UUID, quantity int, unitPrice decimal.Decimal, shippingAddress string) (*Order, error) {
	if buyerID == uuid.Nil || sellerID == uuid.Nil || productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Buyer, seller and product are required")
	}
	if buyerID == sellerID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cannot order your own product")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !unitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BuyerID:           buyerID,
		SellerID:          sellerID,
		ProductID:         productID,
		Quantity:          quantity,
		TotalAmount:       unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		ShippingAddress:   strings.TrimSpace(shippingAddress),
		Status:            OrderStatusPending,
	}, nil
}

// TransitionTo moves the order to target, recording who acted
func (o *Order) TransitionTo(target OrderStatus, actorID uuid.UUID) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	from := o.Status
	o.Status = target
	o.MarkChanged()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, actorID))
	return nil
}

// IsParty reports whether userID is the buyer or the seller
func (o *Order) IsParty(userID uuid.UUID) bool {
	return o.BuyerID == userID || o.SellerID == userID
}
