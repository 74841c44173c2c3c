package onboarding

import (
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Slide is one page of the guided tour
type Slide struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

var commonSlides = []Slide{
	{ID: "welcome", Title: "Welcome to the marketplace", Body: "Here is a quick look around before you start."},
	{ID: "messages", Title: "Messages", Body: "Chat with clients, providers and sellers from the Messages tab."},
}

var roleSlides = map[identity.Role][]Slide{
	identity.RoleClient: {
		{ID: "browse", Title: "Find services and products", Body: "Search listings and book or buy in a few clicks."},
		{ID: "bookings", Title: "Your bookings", Body: "Track upcoming appointments and leave reviews afterwards."},
	},
	identity.RoleProvider: {
		{ID: "services", Title: "Your services", Body: "Publish services with prices and durations."},
		{ID: "bookings", Title: "Booking requests", Body: "Confirm, complete or cancel bookings from your dashboard."},
		{ID: "reviews", Title: "Reviews", Body: "Reply to client reviews to build trust."},
	},
	identity.RoleSeller: {
		{ID: "products", Title: "Your products", Body: "List products and keep an eye on stock."},
		{ID: "orders", Title: "Orders", Body: "Move orders from processing to shipped to delivered."},
		{ID: "documents", Title: "Documents", Body: "Invoices and payout statements are ready to print."},
	},
}

// SlidesFor returns the tour slides for a role
func SlidesFor(role identity.Role) []Slide {
	slides := make([]Slide, 0, len(commonSlides)+len(roleSlides[role]))
	slides = append(slides, commonSlides[0])
	slides = append(slides, roleSlides[role]...)
	slides = append(slides, commonSlides[1:]...)
	return slides
}

// Tour is a linear slide sequence with forward and back navigation only.
// Moving past the last slide completes the tour and invokes onComplete once.
type Tour struct {
	slides     []Slide
	index      int
	completed  bool
	onComplete func() error
}

// NewTour creates a tour for the role
func NewTour(role identity.Role, onComplete func() error) *Tour {
	return &Tour{
		slides:     SlidesFor(role),
		onComplete: onComplete,
	}
}

// Current returns the slide being shown
func (t *Tour) Current() Slide {
	return t.slides[t.index]
}

// Position returns the zero-based index and slide count
func (t *Tour) Position() (int, int) {
	return t.index, len(t.slides)
}

// IsComplete reports whether the tour has been finished
func (t *Tour) IsComplete() bool {
	return t.completed
}

// Next moves forward. On the last slide it completes the tour.
func (t *Tour) Next() error {
	if t.completed {
		return shared.NewDomainError("INVALID_STATE", "Tour already completed")
	}
	if t.index < len(t.slides)-1 {
		t.index++
		return nil
	}
	if t.onComplete != nil {
		if err := t.onComplete(); err != nil {
			return err
		}
	}
	t.completed = true
	return nil
}

// Back moves to the previous slide
func (t *Tour) Back() error {
	if t.completed {
		return shared.NewDomainError("INVALID_STATE", "Tour already completed")
	}
	if t.index == 0 {
		return shared.NewDomainError("INVALID_STATE", "Already at the first slide")
	}
	t.index--
	return nil
}
