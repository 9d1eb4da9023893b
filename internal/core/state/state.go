// Package state holds the normalized client-side document of comment threads
// and the pure reducer that advances it. All mutation flows through
// Store.Dispatch; every transition produces a new immutable snapshot with
// structural sharing for untouched branches.
package state

import (
	"github.com/colonyops/margin/internal/core/comments"
)

// Settings is the adjacent global-settings slice: who the current user is and
// which UI surface is active. It rides along with CommentsState so the
// rendering layer has a single subscription.
type Settings struct {
	User       *comments.Author
	Enabled    bool
	CurrentTab string
}

// CommentsState is the root container for all client-held comment state.
//
// Comments maps comment localId to the comment value. FocusedComment and
// PinnedComment are comment localIds, zero meaning none. RemoteCommentCount
// mirrors the number of comments known to exist on the server and anchors the
// global dirty check.
//
// Revision increments every time the comment map is replaced. Selector
// memoization keys on it, since map values cannot be compared by reference;
// focus and settings changes leave it untouched.
type CommentsState struct {
	Comments           map[int64]comments.Comment
	FocusedComment     int64
	ForceFocus         bool
	PinnedComment      int64
	RemoteCommentCount int
	Settings           Settings
	Revision           uint64
}

// NewState returns an empty state with no comments and nothing focused.
func NewState() *CommentsState {
	return &CommentsState{
		Comments: map[int64]comments.Comment{},
	}
}

// clone returns a shallow copy of the state. Callers that modify the comment
// map must go through cloneComments so subscribers holding the old snapshot
// never observe the change.
func (s *CommentsState) clone() *CommentsState {
	next := *s
	return &next
}

// cloneComments returns a shallow copy of the state with a fresh comment map
// and a bumped revision. Comment values are shared until individually
// replaced.
func (s *CommentsState) cloneComments() *CommentsState {
	next := s.clone()
	next.Comments = make(map[int64]comments.Comment, len(s.Comments))
	for id, c := range s.Comments {
		next.Comments[id] = c
	}
	next.Revision++
	return next
}

// cloneReplies returns a copy of c with a fresh reply map.
func cloneReplies(c comments.Comment) comments.Comment {
	replies := make(map[int64]comments.Reply, len(c.Replies))
	for id, r := range c.Replies {
		replies[id] = r
	}
	c.Replies = replies
	return c
}
