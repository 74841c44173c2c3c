package messaging

import (
	"context"

	"github.com/marketplace/backend/internal/domain/messaging"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MessageSentHandler fans MessageSent events out to the push channel so open
// threads of both participants receive the new message.
type MessageSentHandler struct {
	push   messaging.PushChannel
	logger *zap.Logger
}

// NewMessageSentHandler creates a new MessageSentHandler
func NewMessageSentHandler(push messaging.PushChannel, logger *zap.Logger) *MessageSentHandler {
	return &MessageSentHandler{push: push, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *MessageSentHandler) EventTypes() []string {
	return []string{messaging.EventTypeMessageSent}
}

// Handle publishes the message carried by the event
func (h *MessageSentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	sent, ok := event.(*messaging.MessageSentEvent)
	if !ok {
		h.logger.Warn("Unexpected event payload", zap.String("event_type", event.EventType()))
		return nil
	}
	return h.push.Publish(ctx, &sent.Message)
}

var _ shared.EventHandler = (*MessageSentHandler)(nil)
