package cache

import (
	"go.uber.org/zap"

	"github.com/redis/go-redis/v9"
)

// StoreFactory picks the KVStore implementation for the process
type StoreFactory struct {
	logger    *zap.Logger
	keyPrefix string
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithKeyPrefix namespaces every Redis key
func WithKeyPrefix(prefix string) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.keyPrefix = prefix
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when a client is available and an
// in-memory store otherwise
func (f *StoreFactory) CreateStore(client *redis.Client) KVStore {
	if client != nil {
		f.logger.Info("Using Redis for client state")
		return NewRedisStore(client, f.keyPrefix)
	}
	f.logger.Warn("Redis disabled, client state is kept in process memory and is lost on restart")
	return NewInMemoryStore()
}
