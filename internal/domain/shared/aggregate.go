package shared

import "gorm.io/gorm"

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	PersistedVersion() int
	MarkPersisted()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot carries the optimistic lock version and the events
// raised since the aggregate was loaded.
//
// Version moves with every mutation; persistedVersion is the value stored in
// the database. Repositories update only rows still at persistedVersion, so a
// concurrent writer makes the second save fail with ErrConflict.
type BaseAggregateRoot struct {
	BaseEntity
	Version          int           `gorm:"not null;default:1"`
	persistedVersion int           `gorm:"-"`
	domainEvents     []DomainEvent `gorm:"-"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// MarkChanged records a mutation: the version moves on and UpdatedAt is refreshed
func (a *BaseAggregateRoot) MarkChanged() {
	a.Touch()
	a.IncrementVersion()
}

// PersistedVersion is the stored version, zero for an aggregate never saved
func (a *BaseAggregateRoot) PersistedVersion() int {
	return a.persistedVersion
}

// MarkPersisted records the current version as stored
func (a *BaseAggregateRoot) MarkPersisted() {
	a.persistedVersion = a.Version
}

// AfterFind is a GORM hook run for every loaded row
func (a *BaseAggregateRoot) AfterFind(*gorm.DB) error {
	a.MarkPersisted()
	return nil
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}
