package handler

import (
	"github.com/gin-gonic/gin"
	onboardingapp "github.com/marketplace/backend/internal/application/onboarding"
)

// OnboardingHandler drives the profile wizard and the dashboard tour
type OnboardingHandler struct {
	BaseHandler
	onboardingService *onboardingapp.Service
}

// NewOnboardingHandler creates a new OnboardingHandler
func NewOnboardingHandler(onboardingService *onboardingapp.Service) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

// GetWizard godoc
// @ID           getOnboardingWizard
// @Summary      Get wizard state
// @Tags         onboarding
// @Produce      json
// @Success      200 {object} APIResponse[onboardingapp.WizardResponse]
// @Security     BearerAuth
// @Router       /onboarding [get]
func (h *OnboardingHandler) GetWizard(c *gin.Context) {
	out, err := h.onboardingService.GetWizard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Advance godoc
// @ID           advanceOnboarding
// @Summary      Advance wizard
// @Description  Merge the submitted fields into the draft and move to the next step. The last profile step saves the profile.
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Param        request body onboardingapp.AdvanceRequest true "Step fields"
// @Success      200 {object} APIResponse[onboardingapp.WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /onboarding/next [post]
func (h *OnboardingHandler) Advance(c *gin.Context) {
	var req onboardingapp.AdvanceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.onboardingService.Advance(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Back godoc
// @ID           backOnboarding
// @Summary      Previous wizard step
// @Tags         onboarding
// @Produce      json
// @Success      200 {object} APIResponse[onboardingapp.WizardResponse]
// @Security     BearerAuth
// @Router       /onboarding/back [post]
func (h *OnboardingHandler) Back(c *gin.Context) {
	out, err := h.onboardingService.Back(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Tour godoc
// @ID           getOnboardingTour
// @Summary      Get dashboard tour
// @Description  Role specific tour slides
// @Tags         onboarding
// @Produce      json
// @Success      200 {object} APIResponse[onboardingapp.TourResponse]
// @Security     BearerAuth
// @Router       /onboarding/tour [get]
func (h *OnboardingHandler) Tour(c *gin.Context) {
	out, err := h.onboardingService.Tour(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// CompleteTour godoc
// @ID           completeOnboardingTour
// @Summary      Finish the tour
// @Description  Marks onboarding as completed
// @Tags         onboarding
// @Produce      json
// @Success      200 {object} APIResponse[onboardingapp.WizardResponse]
// @Security     BearerAuth
// @Router       /onboarding/tour/complete [post]
func (h *OnboardingHandler) CompleteTour(c *gin.Context) {
	out, err := h.onboardingService.CompleteTour(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
