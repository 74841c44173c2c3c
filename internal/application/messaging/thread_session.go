package messaging

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/messaging"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// SessionEventType names what a SessionEvent carries
type SessionEventType string

const (
	SessionEventThread  SessionEventType = "thread"
	SessionEventMessage SessionEventType = "message"
)

// ErrSelectionSuperseded is returned by Select when another selection started
// before its fetch completed
var ErrSelectionSuperseded = shared.NewDomainError("CONFLICT", "Conversation selection was superseded")

// SessionEvent is emitted to the connection that owns the session
type SessionEvent struct {
	Type    SessionEventType `json:"type"`
	Thread  *ThreadResponse  `json:"thread,omitempty"`
	Message *MessageResponse `json:"message,omitempty"`
}

// ThreadSession holds the open conversation of one connection. It moves
// through Unselected, Loading, Ready, Sending and Receiving, and keeps at most
// one push subscription. Switching conversation unsubscribes the previous
// thread before subscribing to the next one, and the result of a fetch for a
// conversation that is no longer selected is discarded.
type ThreadSession struct {
	svc    *ConversationService
	logger *zap.Logger

	mu         sync.Mutex
	emitMu     sync.Mutex
	state      messaging.ThreadState
	selected   uuid.UUID
	generation uint64
	sub        messaging.Subscription
	messages   []MessageResponse

	events chan SessionEvent
	done   chan struct{}
	once   sync.Once
}

// NewThreadSession creates an unselected session
func NewThreadSession(svc *ConversationService, logger *zap.Logger) *ThreadSession {
	return &ThreadSession{
		svc:    svc,
		logger: logger,
		state:  messaging.ThreadUnselected,
		events: make(chan SessionEvent, 64),
		done:   make(chan struct{}),
	}
}

// Events streams thread loads and live messages to the connection writer
func (t *ThreadSession) Events() <-chan SessionEvent {
	return t.events
}

// State returns the current state and selected conversation
func (t *ThreadSession) State() (messaging.ThreadState, uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.selected
}

// Messages returns a copy of the open thread's messages
func (t *ThreadSession) Messages() []MessageResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]MessageResponse(nil), t.messages...)
}

// Select opens a conversation. ctx must carry the caller identity and bounds
// the lifetime of the push subscription.
func (t *ThreadSession) Select(ctx context.Context, conversationID uuid.UUID) (*ThreadResponse, error) {
	t.mu.Lock()
	if t.isClosed() {
		t.mu.Unlock()
		return nil, shared.NewDomainError("INVALID_STATE", "Session is closed")
	}
	next, err := t.state.Transition(messaging.ThreadLoading)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	t.generation++
	gen := t.generation
	previous := t.sub
	t.sub = nil
	t.state = next
	t.selected = conversationID
	t.messages = nil
	t.mu.Unlock()

	if previous != nil {
		previous.Unsubscribe()
	}

	thread, sub, err := t.svc.SelectConversation(ctx, conversationID)

	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		t.logger.Debug("Discarding stale conversation fetch", zap.String("conversation_id", conversationID.String()))
		return nil, ErrSelectionSuperseded
	}
	if err != nil {
		t.state = messaging.ThreadUnselected
		t.selected = uuid.Nil
		t.mu.Unlock()
		return nil, err
	}
	t.state = messaging.ThreadReady
	t.sub = sub
	t.messages = append([]MessageResponse(nil), thread.Messages...)
	t.mu.Unlock()

	t.emitFor(gen, SessionEvent{Type: SessionEventThread, Thread: thread})
	go t.receive(ctx, gen, sub)
	return thread, nil
}

// Send posts a message to the open conversation. If another conversation is
// selected while the message is in flight, the message is still returned but
// is not added to the newly open thread.
func (t *ThreadSession) Send(ctx context.Context, content string) (*MessageResponse, error) {
	if _, err := messaging.ValidateContent(content); err != nil {
		return nil, err
	}

	t.mu.Lock()
	next, err := t.state.Transition(messaging.ThreadSending)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	t.state = next
	gen := t.generation
	conversationID := t.selected
	t.mu.Unlock()

	msg, err := t.svc.SendMessage(ctx, SendMessageRequest{ConversationID: conversationID, Content: content})

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		if err != nil {
			return nil, err
		}
		return msg, nil
	}
	t.state = messaging.ThreadReady
	if err != nil {
		return nil, err
	}
	t.appendLocked(*msg)
	return msg, nil
}

// receive consumes pushed messages for one selection until the subscription closes
func (t *ThreadSession) receive(ctx context.Context, gen uint64, sub messaging.Subscription) {
	me, _ := identity.FromContext(ctx)
	for msg := range sub.Events() {
		t.mu.Lock()
		if gen != t.generation {
			t.mu.Unlock()
			return
		}
		if t.state == messaging.ThreadReady {
			t.state = messaging.ThreadReceiving
		}
		resp := ToMessageResponse(&msg)
		added := t.appendLocked(resp)
		if t.state == messaging.ThreadReceiving {
			t.state = messaging.ThreadReady
		}
		t.mu.Unlock()

		if !added {
			continue
		}
		if !t.emitFor(gen, SessionEvent{Type: SessionEventMessage, Message: &resp}) {
			return
		}

		if msg.ReceiverID == me.UserID {
			if _, err := t.svc.MarkRead(ctx, msg.ConversationID); err != nil {
				t.logger.Warn("Failed to mark pushed message read",
					zap.String("conversation_id", msg.ConversationID.String()),
					zap.Error(err))
			}
		}
	}
}

// appendLocked adds msg unless it is already in the thread
func (t *ThreadSession) appendLocked(msg MessageResponse) bool {
	if lo.ContainsBy(t.messages, func(m MessageResponse) bool { return m.ID == msg.ID }) {
		return false
	}
	t.messages = append(t.messages, msg)
	return true
}

// emitFor delivers ev if selection gen is still the open one. Emits are
// serialized, so once a newer thread frame is out nothing from an older
// selection follows it.
func (t *ThreadSession) emitFor(gen uint64, ev SessionEvent) bool {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	current := gen == t.generation
	t.mu.Unlock()
	if !current {
		return false
	}
	select {
	case t.events <- ev:
		return true
	case <-t.done:
		return false
	}
}

func (t *ThreadSession) isClosed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Close releases the subscription. The session cannot be reused.
func (t *ThreadSession) Close() {
	t.once.Do(func() {
		t.mu.Lock()
		t.generation++
		sub := t.sub
		t.sub = nil
		t.state = messaging.ThreadUnselected
		t.selected = uuid.Nil
		close(t.done)
		t.mu.Unlock()

		if sub != nil {
			sub.Unsubscribe()
		}
	})
}
