// Package trade holds service bookings and product orders.
package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsValid reports whether the status is known
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return target == BookingStatusConfirmed || target == BookingStatusCancelled
	case BookingStatusConfirmed:
		return target == BookingStatusCompleted || target == BookingStatusCancelled
	case BookingStatusCompleted, BookingStatusCancelled:
		return false // Terminal states
	}
	return false
}

// Booking is a client's reservation of a provider's service
type Booking struct {
	shared.BaseAggregateRoot
	ClientID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProviderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ServiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ScheduledAt time.Time       `gorm:"not null"`
	Notes       string          `gorm:"type:text"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status      BookingStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
}

// TableName returns the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

// NewBooking creates a pending booking
func NewBooking(clientID, providerID, serviceID uuid.UUID, scheduledAt time.Time, price decimal.Decimal, notes string) (*Booking, error) {
	if clientID == uuid.Nil || providerID == uuid.Nil || serviceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client, provider and service are required")
	}
	if clientID == providerID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cannot book your own service")
	}
	if !scheduledAt.After(time.Now()) {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Booking must be scheduled in the future")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return &Booking{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          clientID,
		ProviderID:        providerID,
		ServiceID:         serviceID,
		ScheduledAt:       scheduledAt,
		Notes:             strings.TrimSpace(notes),
		TotalPrice:        price,
		Status:            BookingStatusPending,
	}, nil
}

// TransitionTo moves the booking to target, recording who acted
func (b *Booking) TransitionTo(target BookingStatus, actorID uuid.UUID) error {
	if !b.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move booking from %s to %s", b.Status, target))
	}
	from := b.Status
	b.Status = target
	b.MarkChanged()
	b.AddDomainEvent(NewBookingStatusChangedEvent(b, from, actorID))
	return nil
}

// IsParty reports whether userID is the client or the provider
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return b.ClientID == userID || b.ProviderID == userID
}
