package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/assistant"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) Load(ctx context.Context, userID uuid.UUID) (*assistant.History, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assistant.History), args.Error(1)
}

func (m *MockHistoryStore) Save(ctx context.Context, h *assistant.History) error {
	return m.Called(ctx, h).Error(0)
}

func (m *MockHistoryStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func newResponder(t *testing.T) *assistant.Responder {
	t.Helper()
	r, err := assistant.NewResponder(assistant.DefaultRules)
	require.NoError(t, err)
	return r
}

func userCtx() context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{UserID: uuid.New(), Role: identity.RoleClient})
}

func TestService_SendKeepsHistory(t *testing.T) {
	kv := cache.NewInMemoryStore()
	defer kv.Close()
	svc := NewService(cache.NewHistoryStore(kv), newResponder(t), nil)
	ctx := userCtx()

	resp, err := svc.Send(ctx, SendRequest{Message: "  How do I reschedule my booking?  "})
	require.NoError(t, err)
	assert.Equal(t, "booking", resp.Answer.Intent)
	assert.Equal(t, "How do I reschedule my booking?", resp.Question.Content)

	_, err = svc.Send(ctx, SendRequest{Message: "xyzzy"})
	require.NoError(t, err)

	h, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, h.Turns, 4)
	assert.Equal(t, assistant.SpeakerUser, h.Turns[0].Speaker)
	assert.Equal(t, assistant.SpeakerAssistant, h.Turns[3].Speaker)
	assert.Equal(t, assistant.FallbackAnswer, h.Turns[3].Content)

	// histories are per user
	other, err := svc.History(userCtx())
	require.NoError(t, err)
	assert.Empty(t, other.Turns)

	require.NoError(t, svc.Clear(ctx))
	h, err = svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, h.Turns)
}

func TestService_SendValidation(t *testing.T) {
	store := new(MockHistoryStore)
	svc := NewService(store, newResponder(t), nil)

	for _, msg := range []string{"", "   ", strings.Repeat("a", MaxMessageLength+1)} {
		_, err := svc.Send(userCtx(), SendRequest{Message: msg})
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_MESSAGE", de.Code)
	}
	store.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)

	_, err := svc.Send(context.Background(), SendRequest{Message: "hi"})
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
}

func TestService_SendSurvivesStoreFailure(t *testing.T) {
	store := new(MockHistoryStore)
	store.On("Load", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	svc := NewService(store, newResponder(t), nil)

	resp, err := svc.Send(userCtx(), SendRequest{Message: "where is my invoice"})
	require.NoError(t, err)
	assert.Equal(t, "document", resp.Answer.Intent)
	store.AssertExpectations(t)
}

func TestService_HistoryLoadFailure(t *testing.T) {
	store := new(MockHistoryStore)
	store.On("Load", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))
	svc := NewService(store, newResponder(t), nil)

	_, err := svc.History(userCtx())
	assert.EqualError(t, err, "redis down")
}
