package state

import (
	"strings"

	"github.com/colonyops/margin/internal/core/comments"
)

// Reduce maps (state, action) to the next state. It is pure: the input state
// is never mutated, and untouched branches are shared between snapshots.
// Actions whose preconditions fail (unknown localId, invalid mode transition)
// return the input pointer unchanged; the reducer has no error channel.
func Reduce(s *CommentsState, a Action) *CommentsState {
	switch a := a.(type) {
	case AddComment:
		return reduceAddComment(s, a)
	case UpdateComment:
		return reduceUpdateComment(s, a)
	case SetCommentMode:
		return reduceSetCommentMode(s, a)
	case SetFocusedComment:
		return reduceSetFocusedComment(s, a)
	case SetPinnedComment:
		return reduceSetPinnedComment(s, a)
	case DeleteComment:
		return reduceDeleteComment(s, a)
	case ResolveComment:
		return reduceResolveComment(s, a)
	case UnresolveComment:
		return reduceUnresolveComment(s, a)
	case InvalidateContentPath:
		return reduceInvalidateContentPath(s, a)
	case AddReply:
		return reduceAddReply(s, a)
	case UpdateReply:
		return reduceUpdateReply(s, a)
	case SetReplyMode:
		return reduceSetReplyMode(s, a)
	case DeleteReply:
		return reduceDeleteReply(s, a)
	case UpdateNewReply:
		return reduceUpdateNewReply(s, a)
	case SaveCommentSuccess:
		return reduceSaveCommentSuccess(s, a)
	case SaveCommentError:
		return reduceSaveCommentError(s, a)
	case DeleteCommentSuccess:
		return reduceDeleteCommentSuccess(s, a)
	case DeleteCommentError:
		return reduceDeleteCommentError(s, a)
	case SaveReplySuccess:
		return reduceSaveReplySuccess(s, a)
	case SaveReplyError:
		return reduceSaveReplyError(s, a)
	case DeleteReplySuccess:
		return reduceDeleteReplySuccess(s, a)
	case DeleteReplyError:
		return reduceDeleteReplyError(s, a)
	case SetRemoteCommentCount:
		return reduceSetRemoteCommentCount(s, a)
	case SetRemoteReplyCount:
		return reduceSetRemoteReplyCount(s, a)
	case UpdateGlobalSettings:
		return reduceUpdateGlobalSettings(s, a)
	}
	return s
}

// withComment replaces one comment in a fresh comment map.
func withComment(s *CommentsState, c comments.Comment) *CommentsState {
	next := s.cloneComments()
	next.Comments[c.LocalID] = c
	return next
}

func reduceAddComment(s *CommentsState, a AddComment) *CommentsState {
	c := a.Comment
	if c.LocalID == 0 {
		return s
	}
	if _, exists := s.Comments[c.LocalID]; exists {
		return s
	}
	if c.Replies == nil {
		c.Replies = map[int64]comments.Reply{}
	}
	return withComment(s, c)
}

func reduceUpdateComment(s *CommentsState, a UpdateComment) *CommentsState {
	c, ok := s.Comments[a.LocalID]
	if !ok || c.Deleted {
		return s
	}
	if c.Mode == comments.ModeEditing {
		if c.NewText == a.Text {
			return s
		}
		c.NewText = a.Text
	} else {
		if c.Text == a.Text {
			return s
		}
		c.Text = a.Text
	}
	return withComment(s, c)
}

func reduceSetCommentMode(s *CommentsState, a SetCommentMode) *CommentsState {
	c, ok := s.Comments[a.LocalID]
	if !ok || !a.Mode.IsValid() || !c.Mode.CanTransition(a.Mode) {
		return s
	}
	if c.Mode == a.Mode {
		return s
	}
	applyModeChange(&c.Mode, &c.Text, &c.NewText, a.Mode)
	return withComment(s, c)
}

// applyModeChange performs the draft staging tied to the editing mode:
// entering editing seeds the draft from the committed text, leaving for
// saving commits the draft, leaving for default discards it.
func applyModeChange(mode *comments.Mode, text, newText *string, target comments.Mode) {
	switch {
	case target == comments.ModeEditing:
		*newText = *text
	case *mode == comments.ModeEditing && target == comments.ModeSaving:
		*text = *newText
		*newText = ""
	case *mode == comments.ModeEditing && target == comments.ModeDefault:
		*newText = ""
	}
	*mode = target
}

func reduceSetFocusedComment(s *CommentsState, a SetFocusedComment) *CommentsState {
	if a.LocalID != 0 {
		if _, ok := s.Comments[a.LocalID]; !ok {
			return s
		}
	}
	if s.FocusedComment == a.LocalID && s.ForceFocus == a.ForceFocus {
		return s
	}
	next := s.clone()
	next.FocusedComment = a.LocalID
	next.ForceFocus = a.ForceFocus
	return next
}

func reduceSetPinnedComment(s *CommentsState, a SetPinnedComment) *CommentsState {
	if a.LocalID != 0 {
		if _, ok := s.Comments[a.LocalID]; !ok {
			return s
		}
	}
	if s.PinnedComment == a.LocalID {
		return s
	}
	next := s.clone()
	next.PinnedComment = a.LocalID
	return next
}

func reduceDeleteComment(s *CommentsState, a DeleteComment) *CommentsState {
	c, ok := s.Comments[a.LocalID]
	if !ok {
		return s
	}
	if !c.Persisted() {
		// Never persisted: nothing to reconcile, purge immediately.
		return purgeComment(s, a.LocalID)
	}
	c.Deleted = true
	c.Mode = comments.ModeDeleting
	return withComment(s, c)
}

// purgeComment removes a comment from the store entirely, releasing focus and
// pin if they pointed at it.
func purgeComment(s *CommentsState, localID int64) *CommentsState {
	next := s.cloneComments()
	delete(next.Comments, localID)
	if next.FocusedComment == localID {
		next.FocusedComment = 0
		next.ForceFocus = false
	}
	if next.PinnedComment == localID {
		next.PinnedComment = 0
	}
	return next
}

func reduceResolveComment(s *CommentsState, a ResolveComment) *CommentsState {
	c, ok := s.Comments[a.LocalID]
	if !ok || c.Deleted || c.Resolved {
		return s
	}
	c.Resolved = true
	return withComment(s, c)
}

func reduceUnresolveComment(s *CommentsState, a UnresolveComment) *CommentsState {
	c, ok := s.Comments[a.LocalID]
	if !ok || !c.Resolved {
		return s
	}
	c.Resolved = false
	return withComment(s, c)
}

func reduceInvalidateContentPath(s *CommentsState, a InvalidateContentPath) *CommentsState {
	if a.Path == "" {
		return s
	}
	var next *CommentsState
	for id, c := range s.Comments {
		if c.Resolved || c.Deleted {
			continue
		}
		if c.ContentPath != a.Path && !strings.HasPrefix(c.ContentPath, a.Path+".") {
			continue
		}
		if next == nil {
			next = s.cloneComments()
		}
		c.Resolved = true
		next.Comments[id] = c
	}
	if next == nil {
		return s
	}
	return next
}

func reduceAddReply(s *CommentsState, a AddReply) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok || a.Reply.LocalID == 0 {
		return s
	}
	if _, exists := c.Replies[a.Reply.LocalID]; exists {
		return s
	}
	c = cloneReplies(c)
	c.Replies[a.Reply.LocalID] = a.Reply
	return withComment(s, c)
}

func reduceUpdateReply(s *CommentsState, a UpdateReply) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok {
		return s
	}
	r, ok := c.Replies[a.LocalID]
	if !ok || r.Deleted {
		return s
	}
	if r.Mode == comments.ModeEditing {
		if r.NewText == a.Text {
			return s
		}
		r.NewText = a.Text
	} else {
		if r.Text == a.Text {
			return s
		}
		r.Text = a.Text
	}
	c = cloneReplies(c)
	c.Replies[a.LocalID] = r
	return withComment(s, c)
}

func reduceSetReplyMode(s *CommentsState, a SetReplyMode) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok {
		return s
	}
	r, ok := c.Replies[a.LocalID]
	if !ok || !a.Mode.IsValid() || !r.Mode.CanTransition(a.Mode) {
		return s
	}
	if r.Mode == a.Mode {
		return s
	}
	applyModeChange(&r.Mode, &r.Text, &r.NewText, a.Mode)
	c = cloneReplies(c)
	c.Replies[a.LocalID] = r
	return withComment(s, c)
}

func reduceDeleteReply(s *CommentsState, a DeleteReply) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok {
		return s
	}
	r, ok := c.Replies[a.LocalID]
	if !ok {
		return s
	}
	c = cloneReplies(c)
	if !r.Persisted() {
		delete(c.Replies, a.LocalID)
	} else {
		r.Deleted = true
		r.Mode = comments.ModeDeleting
		c.Replies[a.LocalID] = r
	}
	return withComment(s, c)
}

func reduceUpdateNewReply(s *CommentsState, a UpdateNewReply) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok || c.Deleted || c.NewReply == a.Text {
		return s
	}
	c.NewReply = a.Text
	return withComment(s, c)
}

func reduceSaveCommentSuccess(s *CommentsState, a SaveCommentSuccess) *CommentsState {
	c, ok := s.Comments[a.LocalID]
	if !ok {
		// Response for a comment purged in the meantime; nothing to fold in.
		return s
	}
	if a.RemoteID != 0 && c.RemoteID == 0 {
		c.RemoteID = a.RemoteID
	}
	if a.Author != nil {
		c.Author = a.Author
	}
	if !a.Date.IsZero() {
		c.Date = a.Date
	}
	c.OriginalText = a.SavedText
	c.Mode = comments.ModeDefault
	return withComment(s, c)
}

func reduceSaveCommentError(s *CommentsState, a SaveCommentError) *CommentsState {
	c, ok := s.Comments[a.LocalID]
	if !ok {
		return s
	}
	c.Mode = comments.ModeSaveError
	return withComment(s, c)
}

func reduceDeleteCommentSuccess(s *CommentsState, a DeleteCommentSuccess) *CommentsState {
	if _, ok := s.Comments[a.LocalID]; !ok {
		return s
	}
	return purgeComment(s, a.LocalID)
}

func reduceDeleteCommentError(s *CommentsState, a DeleteCommentError) *CommentsState {
	c, ok := s.Comments[a.LocalID]
	if !ok {
		return s
	}
	c.Mode = comments.ModeDeleteError
	c.Deleted = false
	return withComment(s, c)
}

func reduceSaveReplySuccess(s *CommentsState, a SaveReplySuccess) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok {
		return s
	}
	r, ok := c.Replies[a.LocalID]
	if !ok {
		return s
	}
	if a.RemoteID != 0 && r.RemoteID == 0 {
		r.RemoteID = a.RemoteID
	}
	if a.Author != nil {
		r.Author = a.Author
	}
	if !a.Date.IsZero() {
		r.Date = a.Date
	}
	r.OriginalText = a.SavedText
	r.Mode = comments.ModeDefault
	c = cloneReplies(c)
	c.Replies[a.LocalID] = r
	return withComment(s, c)
}

func reduceSaveReplyError(s *CommentsState, a SaveReplyError) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok {
		return s
	}
	r, ok := c.Replies[a.LocalID]
	if !ok {
		return s
	}
	r.Mode = comments.ModeSaveError
	c = cloneReplies(c)
	c.Replies[a.LocalID] = r
	return withComment(s, c)
}

func reduceDeleteReplySuccess(s *CommentsState, a DeleteReplySuccess) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok {
		return s
	}
	if _, ok := c.Replies[a.LocalID]; !ok {
		return s
	}
	c = cloneReplies(c)
	delete(c.Replies, a.LocalID)
	return withComment(s, c)
}

func reduceDeleteReplyError(s *CommentsState, a DeleteReplyError) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok {
		return s
	}
	r, ok := c.Replies[a.LocalID]
	if !ok {
		return s
	}
	r.Mode = comments.ModeDeleteError
	r.Deleted = false
	c = cloneReplies(c)
	c.Replies[a.LocalID] = r
	return withComment(s, c)
}

func reduceSetRemoteCommentCount(s *CommentsState, a SetRemoteCommentCount) *CommentsState {
	if s.RemoteCommentCount == a.Count || a.Count < 0 {
		return s
	}
	next := s.clone()
	next.RemoteCommentCount = a.Count
	return next
}

func reduceSetRemoteReplyCount(s *CommentsState, a SetRemoteReplyCount) *CommentsState {
	c, ok := s.Comments[a.CommentLocalID]
	if !ok || c.RemoteReplyCount == a.Count || a.Count < 0 {
		return s
	}
	c.RemoteReplyCount = a.Count
	return withComment(s, c)
}

func reduceUpdateGlobalSettings(s *CommentsState, a UpdateGlobalSettings) *CommentsState {
	if a.User == nil && a.Enabled == nil && a.CurrentTab == nil {
		return s
	}
	next := s.clone()
	if a.User != nil {
		next.Settings.User = a.User
	}
	if a.Enabled != nil {
		next.Settings.Enabled = *a.Enabled
	}
	if a.CurrentTab != nil {
		next.Settings.CurrentTab = *a.CurrentTab
	}
	return next
}
