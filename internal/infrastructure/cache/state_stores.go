package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/assistant"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/onboarding"
)

// Per-user keys. Values are read and written whole.
func CartKey(userID uuid.UUID) string             { return "cart:" + userID.String() }
func AssistantHistoryKey(userID uuid.UUID) string { return "assistant_history:" + userID.String() }
func OnboardingKey(userID uuid.UUID) string       { return "onboarding:" + userID.String() }

// loadJSON decodes key into dest and reports whether it existed
func loadJSON(ctx context.Context, kv KVStore, key string, dest any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, kv KVStore, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw, ttl)
}

// CartStore persists carts
type CartStore struct {
	kv  KVStore
	ttl time.Duration
}

// NewCartStore creates a cart store; ttl of zero never expires
func NewCartStore(kv KVStore, ttl time.Duration) *CartStore {
	return &CartStore{kv: kv, ttl: ttl}
}

// Load returns the stored cart or a new empty one
func (s *CartStore) Load(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c := &cart.Cart{}
	found, err := loadJSON(ctx, s.kv, CartKey(userID), c)
	if err != nil {
		return nil, err
	}
	if !found {
		return cart.New(userID), nil
	}
	c.UserID = userID
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return c, nil
}

func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	return saveJSON(ctx, s.kv, CartKey(c.UserID), c, s.ttl)
}

func (s *CartStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.kv.Delete(ctx, CartKey(userID))
}

// HistoryStore persists assistant conversations
type HistoryStore struct {
	kv KVStore
}

func NewHistoryStore(kv KVStore) *HistoryStore {
	return &HistoryStore{kv: kv}
}

// Load returns the stored history or an empty one
func (s *HistoryStore) Load(ctx context.Context, userID uuid.UUID) (*assistant.History, error) {
	h := &assistant.History{}
	found, err := loadJSON(ctx, s.kv, AssistantHistoryKey(userID), h)
	if err != nil {
		return nil, err
	}
	if !found {
		return assistant.NewHistory(userID), nil
	}
	h.UserID = userID
	return h, nil
}

func (s *HistoryStore) Save(ctx context.Context, h *assistant.History) error {
	return saveJSON(ctx, s.kv, AssistantHistoryKey(h.UserID), h, 0)
}

func (s *HistoryStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.kv.Delete(ctx, AssistantHistoryKey(userID))
}

// OnboardingStore persists unfinished wizards
type OnboardingStore struct {
	kv  KVStore
	ttl time.Duration
}

func NewOnboardingStore(kv KVStore, ttl time.Duration) *OnboardingStore {
	return &OnboardingStore{kv: kv, ttl: ttl}
}

func (s *OnboardingStore) Load(ctx context.Context, userID uuid.UUID) (*onboarding.Wizard, error) {
	var w onboarding.Wizard
	found, err := loadJSON(ctx, s.kv, OnboardingKey(userID), &w)
	if err != nil || !found {
		return nil, err
	}
	return onboarding.ResumeWizard(w.Role, w.Current, w.Draft)
}

func (s *OnboardingStore) Save(ctx context.Context, userID uuid.UUID, w *onboarding.Wizard) error {
	return saveJSON(ctx, s.kv, OnboardingKey(userID), w, s.ttl)
}

func (s *OnboardingStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.kv.Delete(ctx, OnboardingKey(userID))
}

var (
	_ cart.Store               = (*CartStore)(nil)
	_ assistant.HistoryStore   = (*HistoryStore)(nil)
	_ onboarding.ProgressStore = (*OnboardingStore)(nil)
)
