package syncer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/state"
	"github.com/colonyops/margin/internal/core/state/selectors"
	"github.com/colonyops/margin/internal/core/syncer"
)

var testDate = time.Date(2025, time.June, 2, 15, 4, 5, 0, time.UTC)

// fakeClient is an in-memory Client that hands out sequential remote ids and
// records every call. Per-operation hooks run before the call returns, which
// lets tests interleave dispatches with an in-flight request.
type fakeClient struct {
	mu           sync.Mutex
	nextRemoteID int64
	calls        []string

	err          error
	beforeCreate func()
	beforeUpdate func()
	listResult   []syncer.RemoteComment
}

func newFakeClient() *fakeClient {
	return &fakeClient{nextRemoteID: 100}
}

func (f *fakeClient) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) issueID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRemoteID++
	return f.nextRemoteID
}

func (f *fakeClient) ListComments(context.Context) ([]syncer.RemoteComment, error) {
	f.record("list")
	return f.listResult, f.err
}

func (f *fakeClient) CreateComment(_ context.Context, c syncer.NewComment) (syncer.Saved, error) {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.record("create-comment %s %q", c.ContentPath, c.Text)
	if f.err != nil {
		return syncer.Saved{}, f.err
	}
	return syncer.Saved{RemoteID: f.issueID(), Date: testDate}, nil
}

func (f *fakeClient) UpdateComment(_ context.Context, remoteID int64, text string) (syncer.Saved, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	f.record("update-comment %d %q", remoteID, text)
	if f.err != nil {
		return syncer.Saved{}, f.err
	}
	return syncer.Saved{RemoteID: remoteID, Date: testDate}, nil
}

func (f *fakeClient) DeleteComment(_ context.Context, remoteID int64) error {
	f.record("delete-comment %d", remoteID)
	return f.err
}

func (f *fakeClient) ResolveComment(_ context.Context, remoteID int64, resolved bool) error {
	f.record("resolve-comment %d %v", remoteID, resolved)
	return f.err
}

func (f *fakeClient) CreateReply(_ context.Context, commentRemoteID int64, text string) (syncer.Saved, error) {
	f.record("create-reply %d %q", commentRemoteID, text)
	if f.err != nil {
		return syncer.Saved{}, f.err
	}
	return syncer.Saved{RemoteID: f.issueID(), Date: testDate}, nil
}

func (f *fakeClient) UpdateReply(_ context.Context, commentRemoteID, replyRemoteID int64, text string) (syncer.Saved, error) {
	f.record("update-reply %d %d %q", commentRemoteID, replyRemoteID, text)
	if f.err != nil {
		return syncer.Saved{}, f.err
	}
	return syncer.Saved{RemoteID: replyRemoteID, Date: testDate}, nil
}

func (f *fakeClient) DeleteReply(_ context.Context, commentRemoteID, replyRemoteID int64) error {
	f.record("delete-reply %d %d", commentRemoteID, replyRemoteID)
	return f.err
}

func fixture(t *testing.T) (*state.Store, *fakeClient, *syncer.Syncer) {
	t.Helper()
	store := state.NewStore(nil, zerolog.Nop())
	client := newFakeClient()
	return store, client, syncer.New(store, client, zerolog.Nop())
}

func committed(localID, remoteID int64, text string) comments.Comment {
	return comments.Comment{
		LocalID:      localID,
		RemoteID:     remoteID,
		ContentPath:  "body",
		Mode:         comments.ModeDefault,
		Text:         text,
		OriginalText: text,
		Date:         testDate,
		Replies:      map[int64]comments.Reply{},
	}
}

func TestSync_CreatesNewComment(t *testing.T) {
	store, client, s := fixture(t)

	c := committed(1, 0, "first draft")
	c.OriginalText = ""
	store.Dispatch(state.AddComment{Comment: c})

	require.NoError(t, s.Sync(context.Background()))

	got := store.State().Comments[1]
	assert.Equal(t, int64(101), got.RemoteID)
	assert.Equal(t, comments.ModeDefault, got.Mode)
	assert.Equal(t, "first draft", got.OriginalText)
	assert.Equal(t, 1, store.State().RemoteCommentCount)
	assert.Equal(t, []string{`create-comment body "first draft"`}, client.Calls())
	assert.False(t, selectors.IsDirty()(store.State()))
}

func TestSync_UpdatesEditedComment(t *testing.T) {
	store, client, s := fixture(t)
	store.Dispatch(state.AddComment{Comment: committed(1, 42, "before")})
	store.Dispatch(state.SetRemoteCommentCount{Count: 1})
	store.Dispatch(state.UpdateComment{LocalID: 1, Text: "after"})

	require.NoError(t, s.Sync(context.Background()))

	got := store.State().Comments[1]
	assert.Equal(t, "after", got.OriginalText)
	assert.Equal(t, []string{`update-comment 42 "after"`}, client.Calls())
	assert.False(t, selectors.IsDirty()(store.State()))
}

func TestSync_SkipsUncommittedDrafts(t *testing.T) {
	store, client, s := fixture(t)
	seq := comments.NewSequence()

	// A freshly opened editor and a delete awaiting confirmation.
	draft := comments.NewLocalComment(seq, nil, "body", "", testDate)
	store.Dispatch(state.AddComment{Comment: draft})
	store.Dispatch(state.AddComment{Comment: committed(50, 9, "keep")})
	store.Dispatch(state.SetCommentMode{LocalID: 50, Mode: comments.ModeDeleteConfirm})

	require.NoError(t, s.Sync(context.Background()))

	assert.Empty(t, client.Calls())
}

func TestSync_DeletesPersistedComment(t *testing.T) {
	store, client, s := fixture(t)
	store.Dispatch(state.AddComment{Comment: committed(1, 42, "doomed")})
	store.Dispatch(state.SetRemoteCommentCount{Count: 1})
	store.Dispatch(state.DeleteComment{LocalID: 1})

	require.NoError(t, s.Sync(context.Background()))

	assert.NotContains(t, store.State().Comments, int64(1))
	assert.Zero(t, store.State().RemoteCommentCount)
	assert.Equal(t, []string{"delete-comment 42"}, client.Calls())
}

func TestSync_SaveFailureSetsErrorModeAndKeepsText(t *testing.T) {
	store, client, s := fixture(t)
	client.err = errors.New("503 service unavailable")

	store.Dispatch(state.AddComment{Comment: committed(1, 42, "before")})
	store.Dispatch(state.SetRemoteCommentCount{Count: 1})
	store.Dispatch(state.UpdateComment{LocalID: 1, Text: "after"})

	err := s.Sync(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "save comment 1")

	got := store.State().Comments[1]
	assert.Equal(t, comments.ModeSaveError, got.Mode)
	assert.Equal(t, "after", got.Text, "edit survives the failed save")
	assert.Equal(t, "before", got.OriginalText)
	assert.True(t, selectors.IsDirty()(store.State()), "failed save leaves the entity dirty for the next cycle")
}

func TestSync_InFlightEntityIsSkipped(t *testing.T) {
	store, client, s := fixture(t)
	store.Dispatch(state.AddComment{Comment: committed(1, 42, "before")})
	store.Dispatch(state.SetRemoteCommentCount{Count: 1})
	store.Dispatch(state.UpdateComment{LocalID: 1, Text: "after"})

	started := make(chan struct{})
	release := make(chan struct{})
	client.beforeUpdate = func() {
		close(started)
		<-release
	}

	done := make(chan error, 1)
	go func() { done <- s.Sync(context.Background()) }()
	<-started

	// A second cycle while the update is unsettled must not double-send.
	client.beforeUpdate = nil
	require.NoError(t, s.Sync(context.Background()))

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{`update-comment 42 "after"`}, client.Calls())
}

func TestSync_StaleSaveKeepsRacedEditDirty(t *testing.T) {
	store, client, s := fixture(t)
	store.Dispatch(state.AddComment{Comment: committed(1, 42, "v1")})
	store.Dispatch(state.SetRemoteCommentCount{Count: 1})
	store.Dispatch(state.UpdateComment{LocalID: 1, Text: "v2"})

	// The user edits again while the v2 save is on the wire.
	client.beforeUpdate = func() {
		store.Dispatch(state.UpdateComment{LocalID: 1, Text: "v3"})
	}

	require.NoError(t, s.Sync(context.Background()))

	got := store.State().Comments[1]
	assert.Equal(t, "v3", got.Text)
	assert.Equal(t, "v2", got.OriginalText, "baseline reflects what the save actually sent")
	assert.True(t, selectors.IsDirty()(store.State()), "raced edit still needs a save")
}

func TestSync_ReplyLifecycle(t *testing.T) {
	store, client, s := fixture(t)
	replySeq := comments.NewSequence()

	store.Dispatch(state.AddComment{Comment: committed(1, 42, "root")})
	store.Dispatch(state.SetRemoteCommentCount{Count: 1})

	r := comments.NewLocalReply(replySeq, nil, testDate)
	r.Mode = comments.ModeDefault
	r.Text = "a reply"
	store.Dispatch(state.AddReply{CommentLocalID: 1, Reply: r})

	require.NoError(t, s.Sync(context.Background()))

	got := store.State().Comments[1].Replies[r.LocalID]
	assert.Equal(t, int64(101), got.RemoteID)
	assert.Equal(t, "a reply", got.OriginalText)
	assert.Equal(t, 1, store.State().Comments[1].RemoteReplyCount)
	assert.Equal(t, []string{`create-reply 42 "a reply"`}, client.Calls())
	assert.False(t, selectors.IsDirty()(store.State()))

	// Delete pushes through and reconciles the reply count back down.
	store.Dispatch(state.DeleteReply{CommentLocalID: 1, LocalID: r.LocalID})
	require.NoError(t, s.Sync(context.Background()))

	assert.NotContains(t, store.State().Comments[1].Replies, r.LocalID)
	assert.Zero(t, store.State().Comments[1].RemoteReplyCount)
}

func TestSync_ReplyWaitsForUnpersistedParent(t *testing.T) {
	store, client, s := fixture(t)
	replySeq := comments.NewSequence()

	parent := committed(1, 0, "new thread")
	parent.OriginalText = ""
	store.Dispatch(state.AddComment{Comment: parent})

	r := comments.NewLocalReply(replySeq, nil, testDate)
	r.Mode = comments.ModeDefault
	r.Text = "too eager"
	store.Dispatch(state.AddReply{CommentLocalID: 1, Reply: r})

	// First cycle persists only the parent.
	require.NoError(t, s.Sync(context.Background()))
	assert.Equal(t, []string{`create-comment body "new thread"`}, client.Calls())

	// Second cycle can now address the reply under the parent's remote id.
	require.NoError(t, s.Sync(context.Background()))
	assert.Contains(t, client.Calls(), `create-reply 101 "too eager"`)
}

func TestPushResolve(t *testing.T) {
	t.Run("success adjusts remote count", func(t *testing.T) {
		store, client, s := fixture(t)
		store.Dispatch(state.AddComment{Comment: committed(1, 42, "done")})
		store.Dispatch(state.SetRemoteCommentCount{Count: 1})

		require.NoError(t, s.PushResolve(context.Background(), 1, true))

		assert.True(t, store.State().Comments[1].Resolved)
		assert.Zero(t, store.State().RemoteCommentCount)
		assert.Equal(t, []string{"resolve-comment 42 true"}, client.Calls())
		assert.False(t, selectors.IsDirty()(store.State()))
	})

	t.Run("failure rolls the flag back", func(t *testing.T) {
		store, client, s := fixture(t)
		client.err = errors.New("403 forbidden")
		store.Dispatch(state.AddComment{Comment: committed(1, 42, "done")})
		store.Dispatch(state.SetRemoteCommentCount{Count: 1})

		err := s.PushResolve(context.Background(), 1, true)
		require.Error(t, err)

		assert.False(t, store.State().Comments[1].Resolved)
		assert.Equal(t, 1, store.State().RemoteCommentCount)
	})

	t.Run("unpersisted comment is rejected", func(t *testing.T) {
		store, _, s := fixture(t)
		c := committed(1, 0, "local only")
		store.Dispatch(state.AddComment{Comment: c})

		assert.Error(t, s.PushResolve(context.Background(), 1, true))
	})
}

func TestLoader_Load(t *testing.T) {
	store := state.NewStore(nil, zerolog.Nop())
	client := newFakeClient()
	client.listResult = []syncer.RemoteComment{
		{
			RemoteID:    7,
			ContentPath: "blocks.0.caption",
			Text:        "typo here",
			Date:        testDate,
			Replies: []syncer.RemoteReply{
				{RemoteID: 70, Text: "fixed", Date: testDate},
			},
		},
		{RemoteID: 8, ContentPath: "title", Text: "old debate", Resolved: true, Date: testDate},
	}

	commentSeq := comments.NewSequence()
	replySeq := comments.NewSequence()
	l := syncer.NewLoader(store, client, commentSeq, replySeq, zerolog.Nop())

	require.NoError(t, l.Load(context.Background()))

	s := store.State()
	require.Len(t, s.Comments, 2)
	assert.Equal(t, 1, s.RemoteCommentCount, "resolved comments do not count as active")
	assert.False(t, selectors.IsDirty()(s), "a fresh load is clean")

	first, ok := selectors.ByID(1)(s)
	require.True(t, ok)
	assert.Equal(t, int64(7), first.RemoteID)
	assert.Equal(t, "typo here", first.OriginalText)
	assert.Equal(t, 1, first.RemoteReplyCount)
	require.Len(t, first.Replies, 1)
	for _, r := range first.Replies {
		assert.Equal(t, int64(70), r.RemoteID)
		assert.Equal(t, "fixed", r.OriginalText)
	}
}
