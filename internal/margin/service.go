package margin

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/state"
	"github.com/colonyops/margin/internal/core/state/selectors"
	"github.com/colonyops/margin/internal/core/syncer"
)

// CommentService exposes the comment workflows the CLI and TUI drive:
// load, list, add, reply, resolve, and remove. Every mutation goes through
// the store and is pushed by the syncer; the service never touches the
// client directly.
type CommentService struct {
	store      *state.Store
	syncer     *syncer.Syncer
	loader     *syncer.Loader
	commentSeq *comments.Sequence
	replySeq   *comments.Sequence
	log        zerolog.Logger

	now func() time.Time
}

// NewCommentService constructs a CommentService from explicit dependencies.
func NewCommentService(
	store *state.Store,
	sync *syncer.Syncer,
	loader *syncer.Loader,
	commentSeq, replySeq *comments.Sequence,
	log zerolog.Logger,
) *CommentService {
	return &CommentService{
		store:      store,
		syncer:     sync,
		loader:     loader,
		commentSeq: commentSeq,
		replySeq:   replySeq,
		log:        log,
		now:        time.Now,
	}
}

// Load hydrates the store from the remote document.
func (s *CommentService) Load(ctx context.Context) error {
	return s.loader.Load(ctx)
}

// Sync pushes all dirty local state to the server.
func (s *CommentService) Sync(ctx context.Context) error {
	return s.syncer.Sync(ctx)
}

// List returns active comments, optionally filtered by a contentpath glob
// pattern such as "blocks.*.caption". An empty pattern lists everything.
func (s *CommentService) List(pattern string) ([]comments.Comment, error) {
	if pattern == "" {
		return selectors.All()(s.store.State()), nil
	}

	sel, err := selectors.ForPattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid path pattern %q: %w", pattern, err)
	}
	return sel(s.store.State()), nil
}

// Add creates a new comment on the given contentpath and saves it remotely.
// The returned comment carries the remote id assigned by the server.
func (s *CommentService) Add(ctx context.Context, contentPath, position, text string) (comments.Comment, error) {
	user := s.store.State().Settings.User
	c := comments.NewLocalComment(s.commentSeq, user, contentPath, position, s.now())

	s.store.Dispatch(state.AddComment{Comment: c})
	s.store.Dispatch(state.UpdateComment{LocalID: c.LocalID, Text: text})
	s.store.Dispatch(state.SetCommentMode{LocalID: c.LocalID, Mode: comments.ModeSaving})

	if err := s.syncer.Sync(ctx); err != nil {
		return comments.Comment{}, err
	}

	saved, ok := s.store.State().Comments[c.LocalID]
	if !ok {
		return comments.Comment{}, fmt.Errorf("comment %d vanished during save", c.LocalID)
	}
	return saved, nil
}

// Reply adds a reply under the comment with the given remote id and saves it.
func (s *CommentService) Reply(ctx context.Context, commentRemoteID int64, text string) (comments.Reply, error) {
	parent, err := s.byRemoteID(commentRemoteID)
	if err != nil {
		return comments.Reply{}, err
	}

	user := s.store.State().Settings.User
	r := comments.NewLocalReply(s.replySeq, user, s.now())

	s.store.Dispatch(state.AddReply{CommentLocalID: parent.LocalID, Reply: r})
	s.store.Dispatch(state.UpdateReply{CommentLocalID: parent.LocalID, LocalID: r.LocalID, Text: text})
	s.store.Dispatch(state.SetReplyMode{CommentLocalID: parent.LocalID, LocalID: r.LocalID, Mode: comments.ModeSaving})

	if err := s.syncer.Sync(ctx); err != nil {
		return comments.Reply{}, err
	}

	cur, ok := s.store.State().Comments[parent.LocalID]
	if !ok {
		return comments.Reply{}, fmt.Errorf("comment %d vanished during save", parent.LocalID)
	}
	return cur.Replies[r.LocalID], nil
}

// Resolve sets or clears the resolved flag on the comment with the given
// remote id.
func (s *CommentService) Resolve(ctx context.Context, commentRemoteID int64, resolved bool) error {
	c, err := s.byRemoteID(commentRemoteID)
	if err != nil {
		return err
	}
	return s.syncer.PushResolve(ctx, c.LocalID, resolved)
}

// Remove deletes the comment with the given remote id, replies included.
func (s *CommentService) Remove(ctx context.Context, commentRemoteID int64) error {
	c, err := s.byRemoteID(commentRemoteID)
	if err != nil {
		return err
	}

	s.store.Dispatch(state.DeleteComment{LocalID: c.LocalID})
	return s.syncer.Sync(ctx)
}

// RemoveReply deletes a single reply identified by its remote id under the
// given comment.
func (s *CommentService) RemoveReply(ctx context.Context, commentRemoteID, replyRemoteID int64) error {
	c, err := s.byRemoteID(commentRemoteID)
	if err != nil {
		return err
	}

	for _, r := range c.Replies {
		if r.RemoteID == replyRemoteID {
			s.store.Dispatch(state.DeleteReply{CommentLocalID: c.LocalID, LocalID: r.LocalID})
			return s.syncer.Sync(ctx)
		}
	}
	return fmt.Errorf("no reply with id %d on comment %d", replyRemoteID, commentRemoteID)
}

// byRemoteID finds a comment by the id the server knows it by. CLI users
// address comments by remote id since local ids are per-process. Resolved
// comments are still addressable (to unresolve them); deleted ones are not.
func (s *CommentService) byRemoteID(remoteID int64) (comments.Comment, error) {
	for _, c := range selectors.Comments(s.store.State()) {
		if c.RemoteID == remoteID && !c.Deleted {
			return c, nil
		}
	}
	return comments.Comment{}, fmt.Errorf("no comment with id %d", remoteID)
}
