package messaging

import (
	"fmt"

	"github.com/marketplace/backend/internal/domain/shared"
)

// ThreadState is the state of an open conversation thread
type ThreadState string

const (
	ThreadUnselected ThreadState = "unselected"
	ThreadLoading    ThreadState = "loading"
	ThreadReady      ThreadState = "ready"
	ThreadSending    ThreadState = "sending"
	ThreadReceiving  ThreadState = "receiving"
)

// threadTransitions lists the allowed next states for each state.
// Loading may fall back to Unselected when the history fetch fails, and a
// new selection can start from Loading, Ready or Sending. A send still in
// flight when the selection moves on completes against its own conversation.
var threadTransitions = map[ThreadState][]ThreadState{
	ThreadUnselected: {ThreadLoading},
	ThreadLoading:    {ThreadReady, ThreadUnselected, ThreadLoading},
	ThreadReady:      {ThreadSending, ThreadReceiving, ThreadLoading},
	ThreadSending:    {ThreadReady, ThreadLoading},
	ThreadReceiving:  {ThreadReady},
}

// CanTransitionTo checks if the state can transition to the target state
func (s ThreadState) CanTransitionTo(target ThreadState) bool {
	for _, next := range threadTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition returns target if the move is allowed
func (s ThreadState) Transition(target ThreadState) (ThreadState, error) {
	if !s.CanTransitionTo(target) {
		return s, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move thread from %s to %s", s, target))
	}
	return target, nil
}
