// Package cart models a shopper's cart, persisted wholesale per user.
package cart

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MaxItems bounds the number of distinct lines in a cart
const MaxItems = 100

// Item is one product line in the cart
type Item struct {
	ProductID uuid.UUID       `json:"product_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// LineTotal is unit price times quantity
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the full cart of one user
type Cart struct {
	UserID    uuid.UUID `json:"user_id"`
	Items     []Item    `json:"items"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty cart
func New(userID uuid.UUID) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     []Item{},
		Currency:  string(valueobject.DefaultCurrency),
		UpdatedAt: time.Now(),
	}
}

// Add adds an item, merging quantities for the same product
func (c *Cart) Add(item Item) error {
	if item.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	if item.Quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if item.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	item.Name = strings.TrimSpace(item.Name)
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			c.Items[i].UnitPrice = item.UnitPrice
			c.touch()
			return nil
		}
	}
	if len(c.Items) >= MaxItems {
		return shared.NewDomainError("CART_FULL", "Cart cannot hold more items")
	}
	c.Items = append(c.Items, item)
	c.touch()
	return nil
}

// SetQuantity sets the quantity of a product; zero removes it
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if quantity == 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		c.touch()
		return nil
	}
	return shared.NewDomainError("NOT_FOUND", "Product is not in the cart")
}

// Remove drops a product from the cart
func (c *Cart) Remove(productID uuid.UUID) error {
	return c.SetQuantity(productID, 0)
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []Item{}
	c.touch()
}

// Total sums every line
func (c *Cart) Total() valueobject.Money {
	amounts := make([]decimal.Decimal, 0, len(c.Items))
	for _, item := range c.Items {
		amounts = append(amounts, item.LineTotal())
	}
	return valueobject.Sum(valueobject.ParseCurrency(c.Currency), amounts...)
}

// Count returns the total number of units
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

// Store persists carts under a fixed per-user key, read and written whole
type Store interface {
	Load(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}
