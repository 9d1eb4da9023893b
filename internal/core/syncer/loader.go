package syncer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/state"
)

// Loader hydrates an empty store from the remote comment list. Every remote
// entity gets a fresh local id; text and originalText start equal so nothing
// is dirty straight after a load.
type Loader struct {
	store      *state.Store
	client     Client
	commentSeq *comments.Sequence
	replySeq   *comments.Sequence
	log        zerolog.Logger
}

// NewLoader creates a loader that allocates local ids from the given
// sequences. The same sequences must be shared with whatever creates local
// entities afterwards, so loaded and new ids never collide.
func NewLoader(store *state.Store, client Client, commentSeq, replySeq *comments.Sequence, log zerolog.Logger) *Loader {
	return &Loader{
		store:      store,
		client:     client,
		commentSeq: commentSeq,
		replySeq:   replySeq,
		log:        log,
	}
}

// Load fetches all remote comments and folds them into the store, then
// records the server's active comment count so the dirty predicate starts
// out false.
func (l *Loader) Load(ctx context.Context) error {
	remote, err := l.client.ListComments(ctx)
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}

	active := 0
	for _, rc := range remote {
		if !rc.Resolved {
			active++
		}
		l.store.Dispatch(state.AddComment{Comment: l.fold(rc)})
	}
	l.store.Dispatch(state.SetRemoteCommentCount{Count: active})

	l.log.Info().Int("comments", len(remote)).Int("active", active).Msg("loaded remote comments")
	return nil
}

func (l *Loader) fold(rc RemoteComment) comments.Comment {
	c := comments.Comment{
		LocalID:          l.commentSeq.Next(),
		RemoteID:         rc.RemoteID,
		ContentPath:      rc.ContentPath,
		Position:         rc.Position,
		Mode:             comments.ModeDefault,
		Author:           rc.Author,
		Date:             rc.Date,
		Text:             rc.Text,
		OriginalText:     rc.Text,
		Resolved:         rc.Resolved,
		RemoteReplyCount: len(rc.Replies),
		Replies:          make(map[int64]comments.Reply, len(rc.Replies)),
	}
	for _, rr := range rc.Replies {
		r := comments.Reply{
			LocalID:      l.replySeq.Next(),
			RemoteID:     rr.RemoteID,
			Mode:         comments.ModeDefault,
			Author:       rr.Author,
			Date:         rr.Date,
			Text:         rr.Text,
			OriginalText: rr.Text,
		}
		c.Replies[r.LocalID] = r
	}
	return c
}
