// Package catalog holds the provider service listings and seller products.
package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListingStatus is the visibility status of a service or product
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
)

// IsValid reports whether the status is known
func (s ListingStatus) IsValid() bool {
	return s == ListingStatusActive || s == ListingStatusInactive
}

// Toggled returns the opposite status
func (s ListingStatus) Toggled() ListingStatus {
	if s == ListingStatusActive {
		return ListingStatusInactive
	}
	return ListingStatusActive
}

// Service is a bookable service offered by a provider
type Service struct {
	shared.BaseAggregateRoot
	ProviderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name            string          `gorm:"type:varchar(200);not null"`
	Description     string          `gorm:"type:text"`
	Category        string          `gorm:"type:varchar(100);index"`
	Price           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DurationMinutes int             `gorm:"not null;default:60"`
	Status          ListingStatus   `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Service) TableName() string {
	return "services"
}

// NewService creates a new active service listing
func NewService(providerID uuid.UUID, name, category string, price decimal.Decimal, durationMinutes int) (*Service, error) {
	if providerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Provider cannot be empty")
	}
	s := &Service{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProviderID:        providerID,
		Status:            ListingStatusActive,
	}
	if err := s.Update(name, "", category, price, durationMinutes); err != nil {
		return nil, err
	}
	s.Version = 1
	return s, nil
}

// Update replaces the editable fields
func (s *Service) Update(name, description, category string, price decimal.Decimal, durationMinutes int) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}
	if durationMinutes <= 0 {
		return shared.NewDomainError("INVALID_DURATION", "Duration must be positive")
	}
	s.Name = strings.TrimSpace(name)
	s.Description = strings.TrimSpace(description)
	s.Category = strings.TrimSpace(category)
	s.Price = price
	s.DurationMinutes = durationMinutes
	s.MarkChanged()
	return nil
}

// ToggleStatus flips between active and inactive
func (s *Service) ToggleStatus() {
	s.Status = s.Status.Toggled()
	s.MarkChanged()
}

// IsOwnedBy reports whether userID is the provider
func (s *Service) IsOwnedBy(userID uuid.UUID) bool {
	return s.ProviderID == userID
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}
	return nil
}
