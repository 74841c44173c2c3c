package onboarding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	onboardingapp "github.com/marketplace/backend/internal/application/onboarding"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProfileRepository is a mock implementation of identity.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Profile), args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *identity.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

type fixture struct {
	me       uuid.UUID
	ctx      context.Context
	profiles *MockProfileRepository
	progress *cache.OnboardingStore
	svc      *onboardingapp.Service
}

func newFixture(t *testing.T, role identity.Role) *fixture {
	t.Helper()
	kv := cache.NewInMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })

	f := &fixture{
		me:       uuid.New(),
		profiles: new(MockProfileRepository),
		progress: cache.NewOnboardingStore(kv, 0),
	}
	f.ctx = identity.WithIdentity(context.Background(), identity.Identity{UserID: f.me, Role: role})
	f.profiles.On("FindByID", mock.Anything, f.me).Return(nil, shared.ErrNotFound).Maybe()
	f.svc = onboardingapp.NewService(f.profiles, f.progress, zap.NewNop())
	return f
}

func TestGetWizard_StartsAtFirstStep(t *testing.T) {
	f := newFixture(t, identity.RoleClient)

	w, err := f.svc.GetWizard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StepProfileBasics, w.Current)
	assert.Equal(t, []onboarding.Step{onboarding.StepProfileBasics, onboarding.StepLocationBio, onboarding.StepTour}, w.Steps)
	assert.False(t, w.Completed)
}

func TestAdvance_ClientSkipsBusinessStep(t *testing.T) {
	f := newFixture(t, identity.RoleClient)
	f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *identity.Profile) bool {
		return p.FullName == "Ada Lovelace" && p.Location == "London"
	})).Return(nil).Once()

	w, err := f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{FullName: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StepLocationBio, w.Current)
	assert.True(t, w.IsLastProfileStep)
	f.profiles.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)

	w, err = f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{Location: "London", Bio: "Engines"})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StepTour, w.Current)
	f.profiles.AssertExpectations(t)
}

func TestAdvance_ProviderVisitsBusinessStep(t *testing.T) {
	f := newFixture(t, identity.RoleProvider)
	f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *identity.Profile) bool {
		return p.BusinessName == "Sparkle"
	})).Return(nil).Once()

	_, err := f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{FullName: "Pat"})
	require.NoError(t, err)
	w, err := f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{Location: "Lagos"})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StepBusinessInfo, w.Current)
	f.profiles.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)

	w, err = f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{BusinessName: "Sparkle"})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StepTour, w.Current)
	f.profiles.AssertExpectations(t)
}

func TestAdvance_ValidationKeepsStep(t *testing.T) {
	f := newFixture(t, identity.RoleClient)

	_, err := f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{FullName: "  "})
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_NAME", de.Code)

	w, err := f.svc.GetWizard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StepProfileBasics, w.Current)
}

func TestAdvance_FailedUpsertStaysOnStep(t *testing.T) {
	f := newFixture(t, identity.RoleClient)
	f.profiles.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{FullName: "Ada"})
	require.NoError(t, err)

	_, err = f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{Location: "London"})
	assert.EqualError(t, err, "db down")

	w, err := f.svc.GetWizard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StepLocationBio, w.Current)
	// the unsaved location was not persisted with the progress either
	assert.Empty(t, w.Draft.Location)
}

func TestBack(t *testing.T) {
	f := newFixture(t, identity.RoleClient)

	_, err := f.svc.Back(f.ctx)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{FullName: "Ada"})
	require.NoError(t, err)
	w, err := f.svc.Back(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StepProfileBasics, w.Current)
	assert.Equal(t, "Ada", w.Draft.FullName)
}

func TestTour(t *testing.T) {
	f := newFixture(t, identity.RoleSeller)

	tour, err := f.svc.Tour(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleSeller, tour.Role)
	assert.Equal(t, onboarding.SlidesFor(identity.RoleSeller), tour.Slides)
}

// advanceToTour walks a client wizard to the tour step, saving the profile
// on the way
func advanceToTour(t *testing.T, f *fixture) {
	t.Helper()
	f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *identity.Profile) bool {
		return !p.OnboardingCompleted
	})).Return(nil).Once()

	_, err := f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{FullName: "Ada"})
	require.NoError(t, err)
	w, err := f.svc.Advance(f.ctx, onboardingapp.AdvanceRequest{Location: "London"})
	require.NoError(t, err)
	require.Equal(t, onboarding.StepTour, w.Current)
}

func TestCompleteTour(t *testing.T) {
	f := newFixture(t, identity.RoleClient)
	advanceToTour(t, f)
	f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *identity.Profile) bool {
		return p.OnboardingCompleted
	})).Return(nil).Once()

	w, err := f.svc.CompleteTour(f.ctx)
	require.NoError(t, err)
	assert.True(t, w.Completed)

	stored, err := f.progress.Load(context.Background(), f.me)
	require.NoError(t, err)
	assert.Nil(t, stored)
	f.profiles.AssertExpectations(t)
}

func TestCompleteTour_BeforeTourStep(t *testing.T) {
	tests := []struct {
		name    string
		advance []onboardingapp.AdvanceRequest
		current onboarding.Step
	}{
		{"fresh wizard", nil, onboarding.StepProfileBasics},
		{"after profile basics", []onboardingapp.AdvanceRequest{{FullName: "Ada"}}, onboarding.StepLocationBio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, identity.RoleSeller)
			for _, req := range tt.advance {
				_, err := f.svc.Advance(f.ctx, req)
				require.NoError(t, err)
			}

			_, err := f.svc.CompleteTour(f.ctx)
			assert.ErrorIs(t, err, shared.ErrInvalidState)
			f.profiles.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)

			w, err := f.svc.GetWizard(f.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.current, w.Current)
			assert.False(t, w.Completed)
		})
	}
}

func TestCompleteTour_AlreadyCompleted(t *testing.T) {
	kv := cache.NewInMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })
	me := uuid.New()
	profiles := new(MockProfileRepository)
	profiles.On("FindByID", mock.Anything, me).Return(&identity.Profile{
		ID: me, Role: identity.RoleClient, FullName: "Ada", OnboardingCompleted: true,
	}, nil)
	svc := onboardingapp.NewService(profiles, cache.NewOnboardingStore(kv, 0), zap.NewNop())
	ctx := identity.WithIdentity(context.Background(), identity.Identity{UserID: me, Role: identity.RoleClient})

	w, err := svc.CompleteTour(ctx)
	require.NoError(t, err)
	assert.True(t, w.Completed)
	profiles.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestCompleteTour_SaveFailure(t *testing.T) {
	f := newFixture(t, identity.RoleClient)
	advanceToTour(t, f)
	f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *identity.Profile) bool {
		return p.OnboardingCompleted
	})).Return(errors.New("db down"))

	_, err := f.svc.CompleteTour(f.ctx)
	assert.EqualError(t, err, "db down")

	w, err := f.svc.GetWizard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StepTour, w.Current)
}

func TestRequiresIdentity(t *testing.T) {
	f := newFixture(t, identity.RoleClient)
	ctx := context.Background()

	_, err := f.svc.GetWizard(ctx)
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
	_, err = f.svc.Advance(ctx, onboardingapp.AdvanceRequest{})
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
	_, err = f.svc.CompleteTour(ctx)
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
}
