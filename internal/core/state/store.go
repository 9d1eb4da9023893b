package state

import (
	"sync"

	"github.com/rs/zerolog"
)

// Subscriber is invoked with the new snapshot after every state change.
type Subscriber func(*CommentsState)

// Store owns the current CommentsState and is its only writer. Dispatches are
// serialized under a mutex so the reducer sees a strictly ordered action
// stream; subscribers run outside the lock with the immutable snapshot, so
// re-entrant dispatch from a subscriber is safe.
type Store struct {
	mu          sync.Mutex
	state       *CommentsState
	subscribers []Subscriber
	log         zerolog.Logger
}

// NewStore creates a store around an initial state. A nil initial state
// starts empty.
func NewStore(initial *CommentsState, log zerolog.Logger) *Store {
	if initial == nil {
		initial = NewState()
	}
	return &Store{state: initial, log: log}
}

// State returns the current snapshot. The returned value is immutable;
// callers must never modify it.
func (s *Store) State() *CommentsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a callback invoked after every state change.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Dispatch runs the action through the reducer. No-op actions (failed
// preconditions, value-identical updates) do not notify subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	next := Reduce(s.state, a)
	if next == s.state {
		s.mu.Unlock()
		s.log.Trace().Str("action", a.name()).Msg("dispatch was a no-op")
		return
	}
	s.state = next
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	s.log.Debug().Str("action", a.name()).Uint64("revision", next.Revision).Msg("dispatched")
	for _, fn := range subs {
		fn(next)
	}
}
