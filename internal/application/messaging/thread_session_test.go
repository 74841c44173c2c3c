package messaging

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/messaging"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// expectOpen stubs the repository calls made when a conversation is selected
func (f *serviceFixture) expectOpen(conv *messaging.Conversation) *mock.Call {
	call := f.conversations.On("FindByID", mock.Anything, conv.ID).Return(conv, nil)
	f.messages.On("FindByConversation", mock.Anything, conv.ID).Return([]messaging.Message{}, nil)
	f.messages.On("MarkRead", mock.Anything, conv.ID, f.me, mock.Anything).Return(int64(0), nil)
	f.directory.On("FindByIDs", mock.Anything, mock.Anything).Return([]identity.PublicProfile{}, nil)
	return call
}

func TestThreadSession_SwitchClosesPreviousSubscriptionFirst(t *testing.T) {
	f := newServiceFixture(t)
	a := f.conversation(t)
	b, _ := messaging.NewConversation(f.me, uuid.New())
	f.expectOpen(a)
	f.expectOpen(b)

	session := NewThreadSession(f.svc, zap.NewNop())
	defer session.Close()

	_, err := session.Select(f.ctx, a.ID)
	require.NoError(t, err)
	_, err = session.Select(f.ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"subscribe:" + a.ID.String(),
		"unsubscribe:" + a.ID.String(),
		"subscribe:" + b.ID.String(),
	}, f.push.Log())
	assert.Zero(t, f.push.active(a.ID))

	state, selected := session.State()
	assert.Equal(t, messaging.ThreadReady, state)
	assert.Equal(t, b.ID, selected)
}

func TestThreadSession_DiscardsStaleFetch(t *testing.T) {
	f := newServiceFixture(t)
	slow := f.conversation(t)
	fast, _ := messaging.NewConversation(f.me, uuid.New())

	started := make(chan struct{})
	release := make(chan struct{})
	f.expectOpen(slow).Run(func(mock.Arguments) {
		close(started)
		<-release
	})
	f.expectOpen(fast)

	session := NewThreadSession(f.svc, zap.NewNop())
	defer session.Close()

	slowResult := make(chan error, 1)
	go func() {
		_, err := session.Select(f.ctx, slow.ID)
		slowResult <- err
	}()
	<-started

	_, err := session.Select(f.ctx, fast.ID)
	require.NoError(t, err)
	close(release)

	select {
	case err := <-slowResult:
		assert.ErrorIs(t, err, ErrSelectionSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("stale selection did not return")
	}

	state, selected := session.State()
	assert.Equal(t, messaging.ThreadReady, state)
	assert.Equal(t, fast.ID, selected)
	assert.Zero(t, f.push.active(slow.ID))
	assert.Equal(t, 1, f.push.active(fast.ID))
}

func TestThreadSession_ReceivesPushedMessages(t *testing.T) {
	f := newServiceFixture(t)
	conv := f.conversation(t)
	var markReads atomic.Int32
	f.messages.On("MarkRead", mock.Anything, conv.ID, f.me, mock.Anything).
		Run(func(mock.Arguments) { markReads.Add(1) }).
		Return(int64(0), nil)
	f.expectOpen(conv)

	session := NewThreadSession(f.svc, zap.NewNop())
	defer session.Close()

	_, err := session.Select(f.ctx, conv.ID)
	require.NoError(t, err)
	ev := <-session.Events()
	assert.Equal(t, SessionEventThread, ev.Type)

	incoming, _ := messaging.NewMessage(conv.ID, f.other, f.me, "ping")
	require.NoError(t, f.push.Publish(context.Background(), incoming))

	select {
	case ev = <-session.Events():
		require.Equal(t, SessionEventMessage, ev.Type)
		assert.Equal(t, "ping", ev.Message.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no message event")
	}

	assert.Eventually(t, func() bool {
		return markReads.Load() == 2
	}, 2*time.Second, 10*time.Millisecond, "read mark re-triggered for the receiver")
	assert.Len(t, session.Messages(), 1)
}

func TestThreadSession_Send(t *testing.T) {
	f := newServiceFixture(t)
	session := NewThreadSession(f.svc, zap.NewNop())
	defer session.Close()

	_, err := session.Send(f.ctx, "hello")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = session.Send(f.ctx, "  ")
	assert.ErrorIs(t, err, messaging.ErrEmptyMessage)

	conv := f.conversation(t)
	f.expectOpen(conv)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.conversations.On("Save", mock.Anything, conv).Return(nil)

	_, err = session.Select(f.ctx, conv.ID)
	require.NoError(t, err)

	sent, err := session.Send(f.ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", sent.Content)

	// The push echo of our own message must not duplicate it.
	time.Sleep(50 * time.Millisecond)
	require.Len(t, session.Messages(), 1)
	assert.Equal(t, sent.ID, session.Messages()[0].ID)

	state, _ := session.State()
	assert.Equal(t, messaging.ThreadReady, state)
}

func TestThreadSession_SelectFailureReturnsToUnselected(t *testing.T) {
	f := newServiceFixture(t)
	id := uuid.New()
	f.conversations.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	session := NewThreadSession(f.svc, zap.NewNop())
	defer session.Close()

	_, err := session.Select(f.ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	state, selected := session.State()
	assert.Equal(t, messaging.ThreadUnselected, state)
	assert.Equal(t, uuid.Nil, selected)
	assert.Empty(t, f.push.Log())
}

func TestThreadSession_Close(t *testing.T) {
	f := newServiceFixture(t)
	conv := f.conversation(t)
	f.expectOpen(conv)

	session := NewThreadSession(f.svc, zap.NewNop())
	_, err := session.Select(f.ctx, conv.ID)
	require.NoError(t, err)

	session.Close()
	session.Close()

	assert.Zero(t, f.push.active(conv.ID))
	_, err = session.Select(f.ctx, conv.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestThreadSession_SelectWhileSending(t *testing.T) {
	f := newServiceFixture(t)
	a := f.conversation(t)
	b, _ := messaging.NewConversation(f.me, uuid.New())
	f.expectOpen(a)
	f.expectOpen(b)

	started := make(chan struct{})
	release := make(chan struct{})
	f.messages.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil).Once()
	f.conversations.On("Save", mock.Anything, a).Return(nil)

	session := NewThreadSession(f.svc, zap.NewNop())
	defer session.Close()

	_, err := session.Select(f.ctx, a.ID)
	require.NoError(t, err)

	type sendResult struct {
		msg *MessageResponse
		err error
	}
	sent := make(chan sendResult, 1)
	go func() {
		msg, err := session.Send(f.ctx, "on my way")
		sent <- sendResult{msg, err}
	}()
	<-started

	state, _ := session.State()
	require.Equal(t, messaging.ThreadSending, state)

	_, err = session.Select(f.ctx, b.ID)
	require.NoError(t, err, "a new selection may start while a send is in flight")
	close(release)

	select {
	case res := <-sent:
		require.NoError(t, res.err)
		assert.Equal(t, a.ID, res.msg.ConversationID)
	case <-time.After(2 * time.Second):
		t.Fatal("send did not return")
	}

	state, selected := session.State()
	assert.Equal(t, messaging.ThreadReady, state)
	assert.Equal(t, b.ID, selected)
	assert.Empty(t, session.Messages(), "the message belongs to the previous thread")
}

func TestThreadSession_EmitDropsSupersededSelection(t *testing.T) {
	f := newServiceFixture(t)
	session := NewThreadSession(f.svc, zap.NewNop())
	defer session.Close()

	session.mu.Lock()
	session.generation = 2
	session.mu.Unlock()

	assert.False(t, session.emitFor(1, SessionEvent{Type: SessionEventMessage, Message: &MessageResponse{Content: "old"}}))
	assert.True(t, session.emitFor(2, SessionEvent{Type: SessionEventThread, Thread: &ThreadResponse{}}))

	ev := <-session.Events()
	assert.Equal(t, SessionEventThread, ev.Type)
	select {
	case ev := <-session.Events():
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}
