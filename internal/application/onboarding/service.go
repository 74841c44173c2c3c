// Package onboarding drives the profile wizard and the guided tour for the
// caller.
package onboarding

import (
	"context"

	identityapp "github.com/marketplace/backend/internal/application/identity"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service handles wizard navigation. Wizard progress lives in the progress
// store; the profile is written once, when leaving the last profile step.
type Service struct {
	profiles identity.ProfileRepository
	progress onboarding.ProgressStore
	logger   *zap.Logger
}

// NewService creates a new onboarding Service
func NewService(profiles identity.ProfileRepository, progress onboarding.ProgressStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		profiles: profiles,
		progress: progress,
		logger:   logger,
	}
}

// GetWizard returns the caller's wizard, starting one if needed
func (s *Service) GetWizard(ctx context.Context) (*WizardResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	w, profile, err := s.load(ctx, me)
	if err != nil {
		return nil, err
	}
	return ToWizardResponse(w, profile.OnboardingCompleted), nil
}

// Advance validates the current step and moves forward. Leaving the last
// profile step upserts the profile first; if that fails the wizard stays put.
func (s *Service) Advance(ctx context.Context, req AdvanceRequest) (*WizardResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "onboarding", "advance")
	defer span.End()

	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	w, profile, err := s.load(ctx, me)
	if err != nil {
		return nil, err
	}

	req.applyTo(w)
	if err := w.ValidateCurrent(); err != nil {
		return nil, err
	}

	if w.IsLastProfileStep() {
		if err := w.ApplyTo(profile); err != nil {
			return nil, err
		}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			telemetry.RecordError(span, err)
			s.logger.Warn("onboarding profile save failed",
				zap.String("user_id", me.UserID.String()),
				zap.Error(err))
			return nil, err
		}
	}

	from := w.Current
	if _, err := w.Advance(); err != nil {
		return nil, err
	}
	if err := s.progress.Save(ctx, me.UserID, w); err != nil {
		return nil, err
	}
	telemetry.AddEvent(span, "step_advanced", "from", string(from), "to", string(w.Current))
	return ToWizardResponse(w, profile.OnboardingCompleted), nil
}

// Back moves the wizard one step back
func (s *Service) Back(ctx context.Context) (*WizardResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	w, profile, err := s.load(ctx, me)
	if err != nil {
		return nil, err
	}
	if _, err := w.Back(); err != nil {
		return nil, err
	}
	if err := s.progress.Save(ctx, me.UserID, w); err != nil {
		return nil, err
	}
	return ToWizardResponse(w, profile.OnboardingCompleted), nil
}

// Tour returns the slides for the caller's role
func (s *Service) Tour(ctx context.Context) (*TourResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := identityapp.LoadOrNew(ctx, s.profiles, me)
	if err != nil {
		return nil, err
	}
	return &TourResponse{Role: profile.Role, Slides: onboarding.SlidesFor(profile.Role)}, nil
}

// CompleteTour finishes the tour, marks onboarding as completed and drops the
// stored wizard progress. The wizard must have reached the tour step; a
// profile already completed answers as completed again.
func (s *Service) CompleteTour(ctx context.Context) (*WizardResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	w, profile, err := s.load(ctx, me)
	if err != nil {
		return nil, err
	}
	if profile.OnboardingCompleted {
		w.Current = onboarding.StepTour
		return ToWizardResponse(w, true), nil
	}
	if w.Current != onboarding.StepTour {
		return nil, shared.NewDomainError("INVALID_STATE", "Finish the profile steps before completing the tour")
	}

	tour := onboarding.NewTour(profile.Role, func() error {
		profile.CompleteOnboarding()
		return s.profiles.Upsert(ctx, profile)
	})
	for !tour.IsComplete() {
		if err := tour.Next(); err != nil {
			return nil, err
		}
	}

	if err := s.progress.Delete(ctx, me.UserID); err != nil {
		s.logger.Warn("failed to clear onboarding progress",
			zap.String("user_id", me.UserID.String()),
			zap.Error(err))
	}
	w.Current = onboarding.StepTour
	s.logger.Info("onboarding completed", zap.String("user_id", me.UserID.String()))
	return ToWizardResponse(w, true), nil
}

// load returns the stored wizard or starts a new one prefilled from the profile
func (s *Service) load(ctx context.Context, me identity.Identity) (*onboarding.Wizard, *identity.Profile, error) {
	profile, err := identityapp.LoadOrNew(ctx, s.profiles, me)
	if err != nil {
		return nil, nil, err
	}
	w, err := s.progress.Load(ctx, me.UserID)
	if err != nil {
		return nil, nil, err
	}
	if w != nil && w.Role == profile.Role {
		return w, profile, nil
	}
	w, err = onboarding.NewWizard(profile.Role)
	if err != nil {
		return nil, nil, err
	}
	w.Draft = onboarding.Draft{
		FullName:            profile.FullName,
		DisplayName:         profile.DisplayName,
		Phone:               profile.Phone,
		Location:            profile.Location,
		Bio:                 profile.Bio,
		BusinessName:        profile.BusinessName,
		BusinessDescription: profile.BusinessDescription,
	}
	return w, profile, nil
}
