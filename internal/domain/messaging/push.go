package messaging

import (
	"context"

	"github.com/google/uuid"
)

// Subscription is a cancellable handle on the push feed of one conversation.
// Events is closed after Unsubscribe or when the subscribing context ends.
type Subscription interface {
	ConversationID() uuid.UUID
	Events() <-chan Message
	// Unsubscribe releases the subscription. It is safe to call more than once.
	Unsubscribe()
}

// PushChannel delivers newly inserted messages to subscribers keyed by
// conversation ID.
type PushChannel interface {
	Publish(ctx context.Context, msg *Message) error
	Subscribe(ctx context.Context, conversationID uuid.UUID) (Subscription, error)
}
