// Package realtime implements the conversation push channel: an in-process
// hub for single-node deployments and a Redis pub/sub transport for fan-out
// across API instances.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/messaging"
)

// DefaultBuffer is the per-subscription event buffer
const DefaultBuffer = 64

// DeliveryObserver is told whether an event reached a subscriber
type DeliveryObserver func(delivered bool)

// subscription is the shared Subscription implementation. stop must release
// the producer side and must be the only path that closes events.
type subscription struct {
	conversationID uuid.UUID
	events         chan messaging.Message
	stop           func()
	once           sync.Once
	done           chan struct{}
}

func newSubscription(conversationID uuid.UUID, buffer int) *subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &subscription{
		conversationID: conversationID,
		events:         make(chan messaging.Message, buffer),
		done:           make(chan struct{}),
	}
}

// watch unsubscribes when ctx ends. stop must be set before calling.
func (s *subscription) watch(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe()
		case <-s.done:
		}
	}()
}

func (s *subscription) ConversationID() uuid.UUID {
	return s.conversationID
}

func (s *subscription) Events() <-chan messaging.Message {
	return s.events
}

// Unsubscribe stops delivery; Events is closed once it returns
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.stop()
		close(s.done)
	})
}

var _ messaging.Subscription = (*subscription)(nil)
