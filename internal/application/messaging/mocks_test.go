package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/messaging"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockConversationRepository is a mock implementation of messaging.ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*messaging.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*messaging.Conversation), args.Error(1)
}

func (m *MockConversationRepository) FindForUser(ctx context.Context, userID uuid.UUID, limit int) ([]messaging.Conversation, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]messaging.Conversation), args.Error(1)
}

func (m *MockConversationRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*messaging.Conversation, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*messaging.Conversation), args.Error(1)
}

func (m *MockConversationRepository) Save(ctx context.Context, conversation *messaging.Conversation) error {
	args := m.Called(ctx, conversation)
	return args.Error(0)
}

// MockMessageRepository is a mock implementation of messaging.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *messaging.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]messaging.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]messaging.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, conversationID, readerID, at)
	return args.Get(0).(int64), args.Error(1)
}

// MockDirectoryRepository is a mock implementation of identity.DirectoryRepository
type MockDirectoryRepository struct {
	mock.Mock
}

func (m *MockDirectoryRepository) SearchByName(ctx context.Context, term string, exclude uuid.UUID, limit int) ([]identity.PublicProfile, error) {
	args := m.Called(ctx, term, exclude, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.PublicProfile), args.Error(1)
}

func (m *MockDirectoryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]identity.PublicProfile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.PublicProfile), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// recordingPush is an in-process push channel that logs subscribe and
// unsubscribe calls in order.
type recordingPush struct {
	mu        sync.Mutex
	log       []string
	subs      map[uuid.UUID][]*recordedSub
	published []messaging.Message
}

func newRecordingPush() *recordingPush {
	return &recordingPush{subs: make(map[uuid.UUID][]*recordedSub)}
}

func (p *recordingPush) Publish(_ context.Context, msg *messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, *msg)
	for _, s := range p.subs[msg.ConversationID] {
		select {
		case s.ch <- *msg:
		default:
		}
	}
	return nil
}

func (p *recordingPush) Subscribe(_ context.Context, conversationID uuid.UUID) (messaging.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &recordedSub{id: conversationID, ch: make(chan messaging.Message, 16), owner: p}
	p.subs[conversationID] = append(p.subs[conversationID], s)
	p.log = append(p.log, "subscribe:"+conversationID.String())
	return s, nil
}

func (p *recordingPush) Log() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.log...)
}

func (p *recordingPush) Published() []messaging.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]messaging.Message(nil), p.published...)
}

func (p *recordingPush) active(conversationID uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs[conversationID])
}

type recordedSub struct {
	id    uuid.UUID
	ch    chan messaging.Message
	once  sync.Once
	owner *recordingPush
}

func (s *recordedSub) ConversationID() uuid.UUID         { return s.id }
func (s *recordedSub) Events() <-chan messaging.Message { return s.ch }

func (s *recordedSub) Unsubscribe() {
	s.once.Do(func() {
		p := s.owner
		p.mu.Lock()
		defer p.mu.Unlock()
		p.log = append(p.log, "unsubscribe:"+s.id.String())
		subs := p.subs[s.id]
		for i, other := range subs {
			if other == s {
				p.subs[s.id] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(s.ch)
	})
}

type txMarker struct{}

// recordingTx runs units of work directly and counts how each one ended.
// Contexts handed to the work carry a marker so calls can be checked to run
// inside it.
type recordingTx struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (r *recordingTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(context.WithValue(ctx, txMarker{}, true))
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.rollbacks++
	} else {
		r.commits++
	}
	return err
}

func (r *recordingTx) counts() (commits, rollbacks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits, r.rollbacks
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txMarker{}) != nil
}
