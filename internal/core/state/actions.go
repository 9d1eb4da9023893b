package state

import (
	"time"

	"github.com/colonyops/margin/internal/core/comments"
)

// Action is a state transition request. The set of implementations is closed;
// Reduce has a defined, total outcome for every one of them and never fails.
type Action interface {
	name() string
}

// AddComment inserts a pre-constructed comment keyed by its localId. Use
// comments.NewLocalComment for user-created comments; the sync loader builds
// fully-populated values for comments fetched from the server.
type AddComment struct {
	Comment comments.Comment
}

// UpdateComment edits a comment's text. While the comment is in editing mode
// the edit lands in the NewText draft; otherwise it commits to Text directly.
type UpdateComment struct {
	LocalID int64
	Text    string
}

// SetCommentMode transitions a comment's lifecycle mode. Entering editing
// seeds the draft from the committed text; leaving editing to saving commits
// the draft; leaving editing to default discards it.
type SetCommentMode struct {
	LocalID int64
	Mode    comments.Mode
}

// SetFocusedComment sets which comment has UI focus. A zero LocalID clears
// focus. ForceFocus distinguishes programmatic focus (scroll/open the thread)
// from passive selection.
type SetFocusedComment struct {
	LocalID    int64
	ForceFocus bool
}

// SetPinnedComment pins a comment so it stays visible regardless of viewport.
// A zero LocalID unpins.
type SetPinnedComment struct {
	LocalID int64
}

// DeleteComment soft-deletes a persisted comment pending remote confirmation,
// or purges an unpersisted one immediately.
type DeleteComment struct {
	LocalID int64
}

// ResolveComment marks a comment as addressed, hiding it from active views
// without deleting it.
type ResolveComment struct {
	LocalID int64
}

// UnresolveComment reverses ResolveComment.
type UnresolveComment struct {
	LocalID int64
}

// InvalidateContentPath resolves every comment anchored at or below the given
// content path. Dispatched when the anchored content is removed from the
// document.
type InvalidateContentPath struct {
	Path string
}

// AddReply inserts a pre-constructed reply under a comment.
type AddReply struct {
	CommentLocalID int64
	Reply          comments.Reply
}

// UpdateReply mirrors UpdateComment for a reply.
type UpdateReply struct {
	CommentLocalID int64
	LocalID        int64
	Text           string
}

// SetReplyMode mirrors SetCommentMode for a reply.
type SetReplyMode struct {
	CommentLocalID int64
	LocalID        int64
	Mode           comments.Mode
}

// DeleteReply mirrors DeleteComment for a reply.
type DeleteReply struct {
	CommentLocalID int64
	LocalID        int64
}

// UpdateNewReply stages the text of a not-yet-submitted reply on the parent
// comment.
type UpdateNewReply struct {
	CommentLocalID int64
	Text           string
}

// SaveCommentSuccess folds a successful create/update response into the
// store. SavedText is the text that was in flight; OriginalText is set to it
// rather than to the current text so an edit that raced the save keeps the
// comment dirty.
type SaveCommentSuccess struct {
	LocalID   int64
	RemoteID  int64
	Author    *comments.Author
	Date      time.Time
	SavedText string
}

// SaveCommentError marks a failed save; text is preserved for retry.
type SaveCommentError struct {
	LocalID int64
}

// DeleteCommentSuccess purges a comment whose remote deletion was confirmed.
type DeleteCommentSuccess struct {
	LocalID int64
}

// DeleteCommentError reverts a failed remote delete so the comment reappears.
type DeleteCommentError struct {
	LocalID int64
}

// SaveReplySuccess mirrors SaveCommentSuccess for a reply.
type SaveReplySuccess struct {
	CommentLocalID int64
	LocalID        int64
	RemoteID       int64
	Author         *comments.Author
	Date           time.Time
	SavedText      string
}

// SaveReplyError mirrors SaveCommentError for a reply.
type SaveReplyError struct {
	CommentLocalID int64
	LocalID        int64
}

// DeleteReplySuccess mirrors DeleteCommentSuccess for a reply.
type DeleteReplySuccess struct {
	CommentLocalID int64
	LocalID        int64
}

// DeleteReplyError mirrors DeleteCommentError for a reply.
type DeleteReplyError struct {
	CommentLocalID int64
	LocalID        int64
}

// SetRemoteCommentCount reconciles the server-side comment count. Dispatched
// by the sync adapter after loads, creates, and confirmed deletes.
type SetRemoteCommentCount struct {
	Count int
}

// SetRemoteReplyCount reconciles one comment's server-side reply count.
type SetRemoteReplyCount struct {
	CommentLocalID int64
	Count          int
}

// UpdateGlobalSettings merges partial settings. Nil fields are left as-is.
type UpdateGlobalSettings struct {
	User       *comments.Author
	Enabled    *bool
	CurrentTab *string
}

func (AddComment) name() string            { return "add-comment" }
func (UpdateComment) name() string         { return "update-comment" }
func (SetCommentMode) name() string        { return "set-comment-mode" }
func (SetFocusedComment) name() string     { return "set-focused-comment" }
func (SetPinnedComment) name() string      { return "set-pinned-comment" }
func (DeleteComment) name() string         { return "delete-comment" }
func (ResolveComment) name() string        { return "resolve-comment" }
func (UnresolveComment) name() string      { return "unresolve-comment" }
func (InvalidateContentPath) name() string { return "invalidate-content-path" }
func (AddReply) name() string              { return "add-reply" }
func (UpdateReply) name() string           { return "update-reply" }
func (SetReplyMode) name() string          { return "set-reply-mode" }
func (DeleteReply) name() string           { return "delete-reply" }
func (UpdateNewReply) name() string        { return "update-new-reply" }
func (SaveCommentSuccess) name() string    { return "save-comment-success" }
func (SaveCommentError) name() string      { return "save-comment-error" }
func (DeleteCommentSuccess) name() string  { return "delete-comment-success" }
func (DeleteCommentError) name() string    { return "delete-comment-error" }
func (SaveReplySuccess) name() string      { return "save-reply-success" }
func (SaveReplyError) name() string        { return "save-reply-error" }
func (DeleteReplySuccess) name() string    { return "delete-reply-success" }
func (DeleteReplyError) name() string      { return "delete-reply-error" }
func (SetRemoteCommentCount) name() string { return "set-remote-comment-count" }
func (SetRemoteReplyCount) name() string   { return "set-remote-reply-count" }
func (UpdateGlobalSettings) name() string  { return "update-global-settings" }
