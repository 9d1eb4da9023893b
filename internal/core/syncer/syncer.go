package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/state"
)

// Syncer pushes local dirty state to the remote comment API.
//
// At most one network operation is in flight per entity localId: a second
// sync cycle that finds an entity still in flight skips it, and a delete
// queued behind an unsettled save is picked up on a later cycle. Failed
// operations are not retried automatically; the entity's dirty predicate is
// unchanged, so the next cycle re-includes it.
type Syncer struct {
	store  *state.Store
	client Client
	log    zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates a syncer over the given store and API client.
func New(store *state.Store, client Client, log zerolog.Logger) *Syncer {
	return &Syncer{
		store:    store,
		client:   client,
		log:      log,
		inflight: map[string]struct{}{},
	}
}

// Sync pushes every dirty comment and reply and waits for all operations
// issued by this cycle to settle. Operations for different entities run
// concurrently. The returned error joins all per-entity failures; the same
// failures are also folded into the store as error modes.
func (s *Syncer) Sync(ctx context.Context) error {
	snap := s.store.State()

	var (
		wg   sync.WaitGroup
		errm sync.Mutex
		errs []error
	)
	run := func(key string, op func() error) {
		if !s.acquire(key) {
			s.log.Debug().Str("entity", key).Msg("operation already in flight, skipping")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.release(key)
			if err := op(); err != nil {
				s.log.Error().Err(err).Str("entity", key).Msg("sync operation failed")
				errm.Lock()
				errs = append(errs, err)
				errm.Unlock()
			}
		}()
	}

	for _, c := range snap.Comments {
		c := c
		key := fmt.Sprintf("comment/%d", c.LocalID)

		switch {
		case c.Mode == comments.ModeEditing || c.Mode == comments.ModeDeleteConfirm:
			// Mid-composition or awaiting confirmation; nothing committed to push.
		case c.Deleted && c.Persisted():
			run(key, func() error { return s.deleteComment(ctx, c) })
			continue
		case !c.Persisted() || c.Text != c.OriginalText:
			run(key, func() error { return s.saveComment(ctx, c) })
		}

		// Reply creation needs the parent's remote id; until the parent's own
		// create settles, its replies wait for a later cycle.
		if !c.Persisted() {
			continue
		}
		for _, r := range c.Replies {
			r := r
			rkey := fmt.Sprintf("reply/%d", r.LocalID)
			switch {
			case r.Mode == comments.ModeEditing || r.Mode == comments.ModeDeleteConfirm:
			case r.Deleted && r.Persisted():
				run(rkey, func() error { return s.deleteReply(ctx, c, r) })
			case r.Deleted:
				// Never persisted and already purged from active views.
			case !r.Persisted() || r.Text != r.OriginalText:
				run(rkey, func() error { return s.saveReply(ctx, c, r) })
			}
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Run syncs on a fixed interval until the context is cancelled. Failures are
// logged and surfaced through entity error modes; the loop keeps going.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.log.Warn().Err(err).Msg("autosave cycle finished with errors")
			}
		}
	}
}

// PushResolve toggles a comment's resolved flag locally and remotely. Unlike
// text edits, resolution is pushed eagerly rather than through the dirty
// cycle, and the remote active-comment count is adjusted on success.
func (s *Syncer) PushResolve(ctx context.Context, localID int64, resolved bool) error {
	snap := s.store.State()
	c, ok := snap.Comments[localID]
	if !ok {
		return fmt.Errorf("resolve comment %d: unknown comment", localID)
	}
	if !c.Persisted() {
		return fmt.Errorf("resolve comment %d: comment has never been saved", localID)
	}

	if resolved {
		s.store.Dispatch(state.ResolveComment{LocalID: localID})
	} else {
		s.store.Dispatch(state.UnresolveComment{LocalID: localID})
	}

	if err := s.client.ResolveComment(ctx, c.RemoteID, resolved); err != nil {
		// Roll the local flag back so views match the server again.
		if resolved {
			s.store.Dispatch(state.UnresolveComment{LocalID: localID})
		} else {
			s.store.Dispatch(state.ResolveComment{LocalID: localID})
		}
		return fmt.Errorf("resolve comment %d: %w", localID, err)
	}

	delta := -1
	if !resolved {
		delta = 1
	}
	s.store.Dispatch(state.SetRemoteCommentCount{Count: s.store.State().RemoteCommentCount + delta})
	return nil
}

func (s *Syncer) saveComment(ctx context.Context, c comments.Comment) error {
	s.store.Dispatch(state.SetCommentMode{LocalID: c.LocalID, Mode: comments.ModeSaving})

	var (
		saved Saved
		err   error
	)
	if c.Persisted() {
		saved, err = s.client.UpdateComment(ctx, c.RemoteID, c.Text)
	} else {
		saved, err = s.client.CreateComment(ctx, NewComment{
			ContentPath: c.ContentPath,
			Position:    c.Position,
			Text:        c.Text,
		})
	}
	if err != nil {
		s.store.Dispatch(state.SaveCommentError{LocalID: c.LocalID})
		return fmt.Errorf("save comment %d: %w", c.LocalID, err)
	}

	s.store.Dispatch(state.SaveCommentSuccess{
		LocalID:   c.LocalID,
		RemoteID:  saved.RemoteID,
		Author:    saved.Author,
		Date:      saved.Date,
		SavedText: c.Text,
	})
	if !c.Persisted() {
		s.store.Dispatch(state.SetRemoteCommentCount{Count: s.store.State().RemoteCommentCount + 1})
	}
	return nil
}

func (s *Syncer) deleteComment(ctx context.Context, c comments.Comment) error {
	if err := s.client.DeleteComment(ctx, c.RemoteID); err != nil {
		s.store.Dispatch(state.DeleteCommentError{LocalID: c.LocalID})
		return fmt.Errorf("delete comment %d: %w", c.LocalID, err)
	}

	s.store.Dispatch(state.DeleteCommentSuccess{LocalID: c.LocalID})
	if !c.Resolved {
		// Resolved comments were already subtracted from the active count.
		s.store.Dispatch(state.SetRemoteCommentCount{Count: s.store.State().RemoteCommentCount - 1})
	}
	return nil
}

func (s *Syncer) saveReply(ctx context.Context, parent comments.Comment, r comments.Reply) error {
	s.store.Dispatch(state.SetReplyMode{CommentLocalID: parent.LocalID, LocalID: r.LocalID, Mode: comments.ModeSaving})

	var (
		saved Saved
		err   error
	)
	if r.Persisted() {
		saved, err = s.client.UpdateReply(ctx, parent.RemoteID, r.RemoteID, r.Text)
	} else {
		saved, err = s.client.CreateReply(ctx, parent.RemoteID, r.Text)
	}
	if err != nil {
		s.store.Dispatch(state.SaveReplyError{CommentLocalID: parent.LocalID, LocalID: r.LocalID})
		return fmt.Errorf("save reply %d on comment %d: %w", r.LocalID, parent.LocalID, err)
	}

	s.store.Dispatch(state.SaveReplySuccess{
		CommentLocalID: parent.LocalID,
		LocalID:        r.LocalID,
		RemoteID:       saved.RemoteID,
		Author:         saved.Author,
		Date:           saved.Date,
		SavedText:      r.Text,
	})
	if !r.Persisted() {
		if cur, ok := s.store.State().Comments[parent.LocalID]; ok {
			s.store.Dispatch(state.SetRemoteReplyCount{CommentLocalID: parent.LocalID, Count: cur.RemoteReplyCount + 1})
		}
	}
	return nil
}

func (s *Syncer) deleteReply(ctx context.Context, parent comments.Comment, r comments.Reply) error {
	if err := s.client.DeleteReply(ctx, parent.RemoteID, r.RemoteID); err != nil {
		s.store.Dispatch(state.DeleteReplyError{CommentLocalID: parent.LocalID, LocalID: r.LocalID})
		return fmt.Errorf("delete reply %d on comment %d: %w", r.LocalID, parent.LocalID, err)
	}

	s.store.Dispatch(state.DeleteReplySuccess{CommentLocalID: parent.LocalID, LocalID: r.LocalID})
	if cur, ok := s.store.State().Comments[parent.LocalID]; ok && cur.RemoteReplyCount > 0 {
		s.store.Dispatch(state.SetRemoteReplyCount{CommentLocalID: parent.LocalID, Count: cur.RemoteReplyCount - 1})
	}
	return nil
}

func (s *Syncer) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Syncer) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}
