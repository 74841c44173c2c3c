package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is used when a seller does not set one
const DefaultLowStockThreshold = 5

// Product is a physical product sold by a seller
type Product struct {
	shared.BaseAggregateRoot
	SellerID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name              string          `gorm:"type:varchar(200);not null"`
	Description       string          `gorm:"type:text"`
	Category          string          `gorm:"type:varchar(100);index"`
	Price             decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Stock             int             `gorm:"not null;default:0"`
	LowStockThreshold int             `gorm:"not null;default:5"`
	ImageURL          string          `gorm:"type:varchar(500)"`
	Status            ListingStatus   `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new active product
func NewProduct(sellerID uuid.UUID, name, category string, price decimal.Decimal, stock int) (*Product, error) {
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Seller cannot be empty")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SellerID:          sellerID,
		Stock:             stock,
		LowStockThreshold: DefaultLowStockThreshold,
		Status:            ListingStatusActive,
	}
	if err := p.Update(name, "", category, price, ""); err != nil {
		return nil, err
	}
	p.Version = 1
	return p, nil
}

// Update replaces the editable fields
func (p *Product) Update(name, description, category string, price decimal.Decimal, imageURL string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.Description = strings.TrimSpace(description)
	p.Category = strings.TrimSpace(category)
	p.Price = price
	if imageURL != "" {
		p.ImageURL = imageURL
	}
	p.MarkChanged()
	return nil
}

// SetLowStockThreshold sets the alert threshold
func (p *Product) SetLowStockThreshold(threshold int) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Threshold cannot be negative")
	}
	p.LowStockThreshold = threshold
	p.MarkChanged()
	return nil
}

// AdjustStock changes the stock by delta. Stock never drops below zero.
func (p *Product) AdjustStock(delta int) error {
	if p.Stock+delta < 0 {
		return shared.WrapDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Cannot remove %d units, only %d in stock", -delta, p.Stock), nil)
	}
	p.Stock += delta
	p.MarkChanged()
	return nil
}

// IsLowStock reports whether stock is at or below the threshold
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// ToggleStatus flips between active and inactive
func (p *Product) ToggleStatus() {
	p.Status = p.Status.Toggled()
	p.MarkChanged()
}

// IsOwnedBy reports whether userID is the seller
func (p *Product) IsOwnedBy(userID uuid.UUID) bool {
	return p.SellerID == userID
}
