package state_test

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/state"
)

func newTestStore(t *testing.T) *state.Store {
	t.Helper()
	return state.NewStore(nil, zerolog.Nop())
}

func TestStore_DispatchNotifiesSubscribers(t *testing.T) {
	store := newTestStore(t)
	seq := comments.NewSequence()

	var got []*state.CommentsState
	store.Subscribe(func(s *state.CommentsState) {
		got = append(got, s)
	})

	c := comments.NewLocalComment(seq, nil, "body", "", testDate)
	store.Dispatch(state.AddComment{Comment: c})

	require.Len(t, got, 1)
	assert.Same(t, store.State(), got[0])
	assert.Contains(t, got[0].Comments, c.LocalID)
}

func TestStore_NoopDispatchDoesNotNotify(t *testing.T) {
	store := newTestStore(t)

	notified := 0
	store.Subscribe(func(*state.CommentsState) { notified++ })

	store.Dispatch(state.UpdateComment{LocalID: 404, Text: "x"})

	assert.Zero(t, notified)
}

func TestStore_ConcurrentDispatchesAreSerialized(t *testing.T) {
	store := newTestStore(t)
	seq := comments.NewSequence()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := comments.NewLocalComment(seq, nil, "body", "", testDate)
			store.Dispatch(state.AddComment{Comment: c})
		}()
	}
	wg.Wait()

	assert.Len(t, store.State().Comments, n)
}

func TestStore_SubscriberSeesImmutableSnapshot(t *testing.T) {
	store := newTestStore(t)
	seq := comments.NewSequence()

	c := comments.NewLocalComment(seq, nil, "body", "", testDate)
	store.Dispatch(state.AddComment{Comment: c})
	first := store.State()

	store.Dispatch(state.UpdateComment{LocalID: c.LocalID, Text: "edit"})

	// The earlier snapshot is untouched by the later dispatch.
	assert.Empty(t, first.Comments[c.LocalID].NewText)
	assert.Equal(t, "edit", store.State().Comments[c.LocalID].NewText)
}
