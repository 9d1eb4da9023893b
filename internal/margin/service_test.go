package margin_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/state/selectors"
	"github.com/colonyops/margin/internal/core/syncer"
	"github.com/colonyops/margin/internal/margin"
)

var testDate = time.Date(2025, time.June, 2, 15, 4, 5, 0, time.UTC)

// memoryBackend keeps comments in memory and behaves like a well-mannered
// server: it assigns ids, echoes saves, and honors deletes.
type memoryBackend struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64]syncer.RemoteComment
	replies  map[int64][]syncer.RemoteReply
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		nextID:   100,
		comments: map[int64]syncer.RemoteComment{},
		replies:  map[int64][]syncer.RemoteReply{},
	}
}

func (b *memoryBackend) issueID() int64 {
	b.nextID++
	return b.nextID
}

func (b *memoryBackend) ListComments(context.Context) ([]syncer.RemoteComment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []syncer.RemoteComment
	for id, c := range b.comments {
		c.Replies = append([]syncer.RemoteReply(nil), b.replies[id]...)
		out = append(out, c)
	}
	return out, nil
}

func (b *memoryBackend) CreateComment(_ context.Context, nc syncer.NewComment) (syncer.Saved, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.issueID()
	b.comments[id] = syncer.RemoteComment{
		RemoteID:    id,
		ContentPath: nc.ContentPath,
		Position:    nc.Position,
		Text:        nc.Text,
		Date:        testDate,
	}
	return syncer.Saved{RemoteID: id, Date: testDate}, nil
}

func (b *memoryBackend) UpdateComment(_ context.Context, remoteID int64, text string) (syncer.Saved, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.comments[remoteID]
	c.Text = text
	b.comments[remoteID] = c
	return syncer.Saved{RemoteID: remoteID, Date: testDate}, nil
}

func (b *memoryBackend) DeleteComment(_ context.Context, remoteID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.comments, remoteID)
	delete(b.replies, remoteID)
	return nil
}

func (b *memoryBackend) ResolveComment(_ context.Context, remoteID int64, resolved bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.comments[remoteID]
	c.Resolved = resolved
	b.comments[remoteID] = c
	return nil
}

func (b *memoryBackend) CreateReply(_ context.Context, commentRemoteID int64, text string) (syncer.Saved, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.issueID()
	b.replies[commentRemoteID] = append(b.replies[commentRemoteID], syncer.RemoteReply{
		RemoteID: id,
		Text:     text,
		Date:     testDate,
	})
	return syncer.Saved{RemoteID: id, Date: testDate}, nil
}

func (b *memoryBackend) UpdateReply(_ context.Context, commentRemoteID, replyRemoteID int64, text string) (syncer.Saved, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, r := range b.replies[commentRemoteID] {
		if r.RemoteID == replyRemoteID {
			b.replies[commentRemoteID][i].Text = text
		}
	}
	return syncer.Saved{RemoteID: replyRemoteID, Date: testDate}, nil
}

func (b *memoryBackend) DeleteReply(_ context.Context, commentRemoteID, replyRemoteID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rs := b.replies[commentRemoteID]
	for i, r := range rs {
		if r.RemoteID == replyRemoteID {
			b.replies[commentRemoteID] = append(rs[:i], rs[i+1:]...)
			break
		}
	}
	return nil
}

func testApp(t *testing.T) (*margin.App, *memoryBackend) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Document = "42"
	cfg.User.Name = "sam"
	backend := newMemoryBackend()
	return margin.NewAppWithClient(&cfg, backend), backend
}

func TestCommentService_AddAndList(t *testing.T) {
	app, backend := testApp(t)
	ctx := context.Background()

	created, err := app.Comments.Add(ctx, "blocks.0.caption", "", "typo here")
	require.NoError(t, err)

	assert.NotZero(t, created.RemoteID)
	assert.Equal(t, "typo here", created.Text)
	assert.Equal(t, "typo here", created.OriginalText)
	require.NotNil(t, created.Author)
	assert.Equal(t, "sam", created.Author.Name)

	require.Len(t, backend.comments, 1)

	listed, err := app.Comments.List("blocks.*.caption")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.LocalID, listed[0].LocalID)

	none, err := app.Comments.List("title")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = app.Comments.List("blocks.[")
	assert.Error(t, err)
}

func TestCommentService_ReplyRoundTrip(t *testing.T) {
	app, backend := testApp(t)
	ctx := context.Background()

	created, err := app.Comments.Add(ctx, "body", "", "root")
	require.NoError(t, err)

	reply, err := app.Comments.Reply(ctx, created.RemoteID, "agreed")
	require.NoError(t, err)

	assert.NotZero(t, reply.RemoteID)
	assert.Equal(t, "agreed", reply.Text)
	require.Len(t, backend.replies[created.RemoteID], 1)

	require.NoError(t, app.Comments.RemoveReply(ctx, created.RemoteID, reply.RemoteID))
	assert.Empty(t, backend.replies[created.RemoteID])
	assert.False(t, selectors.IsDirty()(app.Store.State()))
}

func TestCommentService_ResolveAndRemove(t *testing.T) {
	app, backend := testApp(t)
	ctx := context.Background()

	created, err := app.Comments.Add(ctx, "body", "", "root")
	require.NoError(t, err)

	require.NoError(t, app.Comments.Resolve(ctx, created.RemoteID, true))
	assert.True(t, backend.comments[created.RemoteID].Resolved)

	// Resolved comments disappear from listing.
	listed, err := app.Comments.List("")
	require.NoError(t, err)
	assert.Empty(t, listed)

	require.NoError(t, app.Comments.Resolve(ctx, created.RemoteID, false))

	require.NoError(t, app.Comments.Remove(ctx, created.RemoteID))
	assert.Empty(t, backend.comments)
	assert.False(t, selectors.IsDirty()(app.Store.State()))
}

func TestCommentService_UnknownRemoteID(t *testing.T) {
	app, _ := testApp(t)
	ctx := context.Background()

	_, err := app.Comments.Reply(ctx, 999, "x")
	assert.ErrorContains(t, err, "no comment with id 999")

	assert.Error(t, app.Comments.Resolve(ctx, 999, true))
	assert.Error(t, app.Comments.Remove(ctx, 999))
}

func TestCommentService_LoadHydratesExistingThreads(t *testing.T) {
	backend := newMemoryBackend()
	backend.comments[7] = syncer.RemoteComment{
		RemoteID:    7,
		ContentPath: "title",
		Text:        "needs work",
		Date:        testDate,
	}

	cfg := config.DefaultConfig()
	cfg.Document = "42"
	app := margin.NewAppWithClient(&cfg, backend)

	require.NoError(t, app.Comments.Load(context.Background()))

	listed, err := app.Comments.List("")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(7), listed[0].RemoteID)
	assert.False(t, selectors.IsDirty()(app.Store.State()))
}
