package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/messaging"
	"go.uber.org/zap"
)

// MemoryHub is an in-process PushChannel. Slow subscribers drop events
// instead of blocking the publisher.
type MemoryHub struct {
	mu      sync.RWMutex
	subs    map[uuid.UUID]map[*subscription]struct{}
	buffer  int
	logger  *zap.Logger
	observe DeliveryObserver
}

// NewMemoryHub creates an empty hub
func NewMemoryHub(buffer int, logger *zap.Logger) *MemoryHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryHub{
		subs:    make(map[uuid.UUID]map[*subscription]struct{}),
		buffer:  buffer,
		logger:  logger,
		observe: func(bool) {},
	}
}

// SetDeliveryObserver sets the hook counting delivered and dropped events
func (h *MemoryHub) SetDeliveryObserver(o DeliveryObserver) {
	if o != nil {
		h.observe = o
	}
}

// Publish delivers msg to every subscriber of its conversation
func (h *MemoryHub) Publish(ctx context.Context, msg *messaging.Message) error {
	if msg == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[msg.ConversationID] {
		select {
		case sub.events <- *msg:
			h.observe(true)
		default:
			h.observe(false)
			h.logger.Warn("Dropping push event for slow subscriber",
				zap.String("conversation_id", msg.ConversationID.String()),
				zap.String("message_id", msg.ID.String()))
		}
	}
	return nil
}

// Subscribe registers a subscription that ends on Unsubscribe or ctx cancellation
func (h *MemoryHub) Subscribe(ctx context.Context, conversationID uuid.UUID) (messaging.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := newSubscription(conversationID, h.buffer)

	h.mu.Lock()
	if h.subs[conversationID] == nil {
		h.subs[conversationID] = make(map[*subscription]struct{})
	}
	h.subs[conversationID][sub] = struct{}{}
	h.mu.Unlock()

	sub.stop = func() { h.remove(sub) }
	sub.watch(ctx)
	return sub, nil
}

func (h *MemoryHub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[sub.conversationID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.conversationID)
		}
	}
	close(sub.events)
}

// SubscriberCount returns the number of open subscriptions for a conversation
func (h *MemoryHub) SubscriberCount(conversationID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[conversationID])
}

var _ messaging.PushChannel = (*MemoryHub)(nil)
