// Package onboarding implements the profile wizard and the guided tour as
// explicit state machines.
package onboarding

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Step is a wizard step
type Step string

const (
	StepProfileBasics Step = "profile_basics"
	StepLocationBio   Step = "location_bio"
	StepBusinessInfo  Step = "business_info"
	StepTour          Step = "tour"
)

// IsValid reports whether the step is known
func (s Step) IsValid() bool {
	switch s {
	case StepProfileBasics, StepLocationBio, StepBusinessInfo, StepTour:
		return true
	}
	return false
}

// forwardTransitions maps a step to the steps "continue" may lead to.
// location_bio branches on role: clients skip business_info.
var forwardTransitions = map[Step][]Step{
	StepProfileBasics: {StepLocationBio},
	StepLocationBio:   {StepBusinessInfo, StepTour},
	StepBusinessInfo:  {StepTour},
	StepTour:          {},
}

// backTransitions maps a step to the steps "back" may lead to
var backTransitions = map[Step][]Step{
	StepProfileBasics: {},
	StepLocationBio:   {StepProfileBasics},
	StepBusinessInfo:  {StepLocationBio},
	StepTour:          {StepBusinessInfo, StepLocationBio},
}

// CanTransitionTo checks the transition table in both directions
func (s Step) CanTransitionTo(target Step) bool {
	for _, next := range forwardTransitions[s] {
		if next == target {
			return true
		}
	}
	for _, prev := range backTransitions[s] {
		if prev == target {
			return true
		}
	}
	return false
}

// Steps returns the step sequence for a role
func Steps(role identity.Role) []Step {
	if role.HasBusiness() {
		return []Step{StepProfileBasics, StepLocationBio, StepBusinessInfo, StepTour}
	}
	return []Step{StepProfileBasics, StepLocationBio, StepTour}
}

// Draft holds the form fields collected across steps
type Draft struct {
	FullName            string `json:"full_name"`
	DisplayName         string `json:"display_name"`
	Phone               string `json:"phone"`
	Location            string `json:"location"`
	Bio                 string `json:"bio"`
	BusinessName        string `json:"business_name"`
	BusinessDescription string `json:"business_description"`
}

// Wizard is the onboarding state machine for one user
type Wizard struct {
	Role    identity.Role `json:"role"`
	Current Step          `json:"current"`
	Draft   Draft         `json:"draft"`
}

// ProgressStore keeps an unfinished wizard per user between requests.
// Load returns nil, nil when nothing is stored.
type ProgressStore interface {
	Load(ctx context.Context, userID uuid.UUID) (*Wizard, error)
	Save(ctx context.Context, userID uuid.UUID, w *Wizard) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// NewWizard starts a wizard at the first step
func NewWizard(role identity.Role) (*Wizard, error) {
	return ResumeWizard(role, StepProfileBasics, Draft{})
}

// ResumeWizard rebuilds a wizard at a given step
func ResumeWizard(role identity.Role, current Step, draft Draft) (*Wizard, error) {
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be client, provider or seller")
	}
	if !current.IsValid() {
		return nil, shared.NewDomainError("INVALID_STEP", fmt.Sprintf("Unknown onboarding step %q", current))
	}
	if current == StepBusinessInfo && !role.HasBusiness() {
		return nil, shared.NewDomainError("INVALID_STEP", "Clients have no business step")
	}
	return &Wizard{Role: role, Current: current, Draft: draft}, nil
}

// IsLastProfileStep reports whether continuing from the current step must
// persist the profile
func (w *Wizard) IsLastProfileStep() bool {
	if w.Role.HasBusiness() {
		return w.Current == StepBusinessInfo
	}
	return w.Current == StepLocationBio
}

// NextStep returns where "continue" leads from the current step
func (w *Wizard) NextStep() (Step, error) {
	var next Step
	switch w.Current {
	case StepProfileBasics:
		next = StepLocationBio
	case StepLocationBio:
		next = StepTour
		if w.Role.HasBusiness() {
			next = StepBusinessInfo
		}
	case StepBusinessInfo:
		next = StepTour
	default:
		return w.Current, shared.NewDomainError("INVALID_STATE", "The tour is the last onboarding step")
	}
	if !w.Current.CanTransitionTo(next) {
		return w.Current, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move from %s to %s", w.Current, next))
	}
	return next, nil
}

// ValidateCurrent validates the fields owned by the current step
func (w *Wizard) ValidateCurrent() error {
	switch w.Current {
	case StepProfileBasics:
		if strings.TrimSpace(w.Draft.FullName) == "" {
			return shared.NewDomainError("INVALID_NAME", "Full name is required")
		}
	case StepLocationBio:
		if strings.TrimSpace(w.Draft.Location) == "" {
			return shared.NewDomainError("INVALID_LOCATION", "Location is required")
		}
	case StepBusinessInfo:
		if strings.TrimSpace(w.Draft.BusinessName) == "" {
			return shared.NewDomainError("INVALID_BUSINESS_NAME", "Business name is required")
		}
	}
	return nil
}

// Advance validates the current step and moves forward. The caller persists
// the profile before calling Advance when IsLastProfileStep is true, so a
// failed save leaves the wizard where it was.
func (w *Wizard) Advance() (Step, error) {
	if err := w.ValidateCurrent(); err != nil {
		return w.Current, err
	}
	next, err := w.NextStep()
	if err != nil {
		return w.Current, err
	}
	w.Current = next
	return next, nil
}

// Back moves to the previous step for the role
func (w *Wizard) Back() (Step, error) {
	var prev Step
	switch w.Current {
	case StepLocationBio:
		prev = StepProfileBasics
	case StepBusinessInfo:
		prev = StepLocationBio
	case StepTour:
		prev = StepLocationBio
		if w.Role.HasBusiness() {
			prev = StepBusinessInfo
		}
	default:
		return w.Current, shared.NewDomainError("INVALID_STATE", "Already at the first step")
	}
	if !w.Current.CanTransitionTo(prev) {
		return w.Current, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move from %s to %s", w.Current, prev))
	}
	w.Current = prev
	return prev, nil
}

// ApplyTo copies the draft onto a profile, validating every profile step
func (w *Wizard) ApplyTo(p *identity.Profile) error {
	if err := p.SetBasics(w.Draft.FullName, w.Draft.DisplayName, w.Draft.Phone); err != nil {
		return err
	}
	if err := p.SetLocation(w.Draft.Location, w.Draft.Bio); err != nil {
		return err
	}
	if w.Role.HasBusiness() {
		if err := p.SetBusiness(w.Draft.BusinessName, w.Draft.BusinessDescription); err != nil {
			return err
		}
	}
	return nil
}
