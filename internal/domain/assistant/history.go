package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxTurns bounds the stored history; the oldest turns are dropped first
const MaxTurns = 100

// Speaker identifies who produced a turn
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one message in the assistant conversation
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Content string    `json:"content"`
	Intent  string    `json:"intent,omitempty"`
	At      time.Time `json:"at"`
}

// History is the whole assistant conversation of one user
type History struct {
	UserID uuid.UUID `json:"user_id"`
	Turns  []Turn    `json:"turns"`
}

// NewHistory returns an empty history
func NewHistory(userID uuid.UUID) *History {
	return &History{UserID: userID, Turns: []Turn{}}
}

// Append adds turns, trimming to MaxTurns
func (h *History) Append(turns ...Turn) {
	h.Turns = append(h.Turns, turns...)
	if over := len(h.Turns) - MaxTurns; over > 0 {
		h.Turns = append([]Turn(nil), h.Turns[over:]...)
	}
}

// HistoryStore persists histories under a fixed per-user key, read and written whole
type HistoryStore interface {
	Load(ctx context.Context, userID uuid.UUID) (*History, error)
	Save(ctx context.Context, history *History) error
	Delete(ctx context.Context, userID uuid.UUID) error
}
