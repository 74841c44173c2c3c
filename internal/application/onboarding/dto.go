package onboarding

import (
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/onboarding"
)

// AdvanceRequest carries the fields of the current step. Fields owned by
// other steps are ignored.
type AdvanceRequest struct {
	FullName            string `json:"full_name" binding:"omitempty,max=200"`
	DisplayName         string `json:"display_name" binding:"omitempty,max=100"`
	Phone               string `json:"phone" binding:"omitempty,max=50"`
	Location            string `json:"location" binding:"omitempty,max=200"`
	Bio                 string `json:"bio" binding:"omitempty,max=1000"`
	BusinessName        string `json:"business_name" binding:"omitempty,max=200"`
	BusinessDescription string `json:"business_description"`
}

// WizardResponse is the wizard state shown to the client
type WizardResponse struct {
	Role              identity.Role     `json:"role"`
	Current           onboarding.Step   `json:"current"`
	Steps             []onboarding.Step `json:"steps"`
	Draft             onboarding.Draft  `json:"draft"`
	IsLastProfileStep bool              `json:"is_last_profile_step"`
	Completed         bool              `json:"completed"`
}

// TourResponse lists the tour slides for the caller's role
type TourResponse struct {
	Role   identity.Role      `json:"role"`
	Slides []onboarding.Slide `json:"slides"`
}

// ToWizardResponse converts a wizard to its response
func ToWizardResponse(w *onboarding.Wizard, completed bool) *WizardResponse {
	return &WizardResponse{
		Role:              w.Role,
		Current:           w.Current,
		Steps:             onboarding.Steps(w.Role),
		Draft:             w.Draft,
		IsLastProfileStep: w.IsLastProfileStep(),
		Completed:         completed,
	}
}

func (r AdvanceRequest) applyTo(w *onboarding.Wizard) {
	switch w.Current {
	case onboarding.StepProfileBasics:
		w.Draft.FullName = r.FullName
		w.Draft.DisplayName = r.DisplayName
		w.Draft.Phone = r.Phone
	case onboarding.StepLocationBio:
		w.Draft.Location = r.Location
		w.Draft.Bio = r.Bio
	case onboarding.StepBusinessInfo:
		w.Draft.BusinessName = r.BusinessName
		w.Draft.BusinessDescription = r.BusinessDescription
	}
}
