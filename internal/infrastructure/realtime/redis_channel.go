package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/messaging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannelPrefix namespaces conversation channels
const DefaultChannelPrefix = "conversation:"

// RedisPushChannel fans messages out over Redis pub/sub, one channel per
// conversation. The caller owns the client.
type RedisPushChannel struct {
	client  *redis.Client
	prefix  string
	buffer  int
	logger  *zap.Logger
	observe DeliveryObserver
}

// RedisPushChannelOption configures a RedisPushChannel
type RedisPushChannelOption func(*RedisPushChannel)

// WithChannelPrefix sets the channel name prefix
func WithChannelPrefix(prefix string) RedisPushChannelOption {
	return func(c *RedisPushChannel) {
		c.prefix = prefix
	}
}

// WithSubscriptionBuffer sets the per-subscription buffer
func WithSubscriptionBuffer(n int) RedisPushChannelOption {
	return func(c *RedisPushChannel) {
		c.buffer = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) RedisPushChannelOption {
	return func(c *RedisPushChannel) {
		c.logger = logger
	}
}

// WithDeliveryObserver sets the hook counting delivered events
func WithDeliveryObserver(o DeliveryObserver) RedisPushChannelOption {
	return func(c *RedisPushChannel) {
		if o != nil {
			c.observe = o
		}
	}
}

// NewRedisPushChannel creates a push channel on an existing client
func NewRedisPushChannel(client *redis.Client, opts ...RedisPushChannelOption) *RedisPushChannel {
	c := &RedisPushChannel{
		client:  client,
		prefix:  DefaultChannelPrefix,
		buffer:  DefaultBuffer,
		logger:  zap.NewNop(),
		observe: func(bool) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChannelName returns the pub/sub channel of a conversation
func (c *RedisPushChannel) ChannelName(conversationID uuid.UUID) string {
	return c.prefix + conversationID.String()
}

// Publish sends msg to the conversation channel
func (c *RedisPushChannel) Publish(ctx context.Context, msg *messaging.Message) error {
	if msg == nil {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	channel := c.ChannelName(msg.ConversationID)
	if err := c.client.Publish(ctx, channel, data).Err(); err != nil {
		c.logger.Error("Failed to publish message",
			zap.String("channel", channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe opens a pub/sub subscription and waits for the server to confirm it
func (c *RedisPushChannel) Subscribe(ctx context.Context, conversationID uuid.UUID) (messaging.Subscription, error) {
	channel := c.ChannelName(conversationID)
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	pubsub := c.client.Subscribe(subCtx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := newSubscription(conversationID, c.buffer)
	pumpDone := make(chan struct{})
	sub.stop = func() {
		cancel()
		_ = pubsub.Close()
		<-pumpDone
	}

	go func() {
		defer close(pumpDone)
		defer close(sub.events)
		c.pump(subCtx, pubsub.Channel(), sub)
	}()
	sub.watch(ctx)

	c.logger.Debug("Subscribed to conversation", zap.String("channel", channel))
	return sub, nil
}

func (c *RedisPushChannel) pump(ctx context.Context, in <-chan *redis.Message, sub *subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-in:
			if !ok {
				return
			}
			var msg messaging.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				c.logger.Warn("Discarding malformed push payload",
					zap.String("channel", raw.Channel),
					zap.Error(err))
				continue
			}
			select {
			case sub.events <- msg:
				c.observe(true)
			case <-ctx.Done():
				c.observe(false)
				return
			}
		}
	}
}

var _ messaging.PushChannel = (*RedisPushChannel)(nil)
