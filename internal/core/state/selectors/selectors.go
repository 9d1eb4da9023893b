// Package selectors provides derived read views over the comment state.
//
// Parameterized selectors are factories: they return a closure that caches its
// last result keyed on the state's comment-map revision, so repeated calls
// against an unchanged state return the cached value. Callers are expected to
// hold onto the returned closure rather than re-invoking the factory per
// render.
package selectors

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/state"
)

// Comments returns the full comment map, unfiltered. The map is part of the
// immutable snapshot and must not be modified.
func Comments(s *state.CommentsState) map[int64]comments.Comment {
	return s.Comments
}

// Focused returns the currently focused comment, if any.
func Focused(s *state.CommentsState) (comments.Comment, bool) {
	if s.FocusedComment == 0 {
		return comments.Comment{}, false
	}
	c, ok := s.Comments[s.FocusedComment]
	return c, ok
}

// Pinned returns the pinned comment, if any.
func Pinned(s *state.CommentsState) (comments.Comment, bool) {
	if s.PinnedComment == 0 {
		return comments.Comment{}, false
	}
	c, ok := s.Comments[s.PinnedComment]
	return c, ok
}

// RemoteCommentCount returns the number of comments known to exist remotely.
func RemoteCommentCount(s *state.CommentsState) int {
	return s.RemoteCommentCount
}

// Enabled reports whether commenting is enabled in the global settings.
func Enabled(s *state.CommentsState) bool {
	return s.Settings.Enabled
}

// active reports whether a comment belongs in active derived views.
func active(c comments.Comment) bool {
	return !c.Deleted && !c.Resolved
}

// ForContentPath returns a selector for the active comments anchored at
// exactly the given content path, ordered by local id (creation order).
func ForContentPath(path string) func(*state.CommentsState) []comments.Comment {
	return memoList(func(c comments.Comment) bool {
		return active(c) && c.ContentPath == path
	})
}

// ForPattern returns a selector matching active comments whose content path
// matches a doublestar glob. Content paths are dot-separated; each segment is
// one glob component, so "blocks.*.caption" matches one level and
// "blocks.**" matches any depth. An invalid pattern is reported eagerly.
func ForPattern(pattern string) (func(*state.CommentsState) []comments.Comment, error) {
	p := strings.ReplaceAll(pattern, ".", "/")
	if !doublestar.ValidatePattern(p) {
		return nil, doublestar.ErrBadPattern
	}
	return memoList(func(c comments.Comment) bool {
		if !active(c) {
			return false
		}
		ok, err := doublestar.Match(p, strings.ReplaceAll(c.ContentPath, ".", "/"))
		return err == nil && ok
	}), nil
}

// All returns a selector for every active comment, ordered by local id.
func All() func(*state.CommentsState) []comments.Comment {
	return memoList(active)
}

// memoList builds a revision-memoized list selector over a comment predicate.
func memoList(keep func(comments.Comment) bool) func(*state.CommentsState) []comments.Comment {
	var (
		cachedRev uint64
		cached    []comments.Comment
		have      bool
	)
	return func(s *state.CommentsState) []comments.Comment {
		if have && s.Revision == cachedRev {
			return cached
		}
		out := make([]comments.Comment, 0, len(s.Comments))
		for _, c := range s.Comments {
			if keep(c) {
				out = append(out, c)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
		cachedRev, cached, have = s.Revision, out, true
		return out
	}
}

// ByID returns a selector for a single active comment. Deleted and resolved
// comments are hidden from single-item lookup too.
func ByID(localID int64) func(*state.CommentsState) (comments.Comment, bool) {
	return func(s *state.CommentsState) (comments.Comment, bool) {
		c, ok := s.Comments[localID]
		if !ok || !active(c) {
			return comments.Comment{}, false
		}
		return c, true
	}
}

// Count returns a selector for the number of active comments.
func Count() func(*state.CommentsState) int {
	var (
		cachedRev uint64
		cached    int
		have      bool
	)
	return func(s *state.CommentsState) int {
		if have && s.Revision == cachedRev {
			return cached
		}
		n := 0
		for _, c := range s.Comments {
			if active(c) {
				n++
			}
		}
		cachedRev, cached, have = s.Revision, n, true
		return n
	}
}

// IsDirty returns a selector reporting whether any local state is not yet
// reflected on the server. The document is dirty iff the active comment count
// differs from the remote count, any active comment or reply has uncommitted
// text relative to its last-saved value, any comment's active reply count
// differs from its remote reply count, or any persisted reply is pending
// deletion. Recomputed only when the comment map or the remote count changes.
func IsDirty() func(*state.CommentsState) bool {
	var (
		cachedRev   uint64
		cachedCount int
		cached      bool
		have        bool
	)
	return func(s *state.CommentsState) bool {
		if have && s.Revision == cachedRev && s.RemoteCommentCount == cachedCount {
			return cached
		}
		cachedRev, cachedCount, cached, have = s.Revision, s.RemoteCommentCount, computeDirty(s), true
		return cached
	}
}

func computeDirty(s *state.CommentsState) bool {
	activeCount := 0
	for _, c := range s.Comments {
		if !active(c) {
			continue
		}
		activeCount++
		if c.Text != c.OriginalText {
			return true
		}
		if c.ActiveReplyCount() != c.RemoteReplyCount {
			return true
		}
		for _, r := range c.Replies {
			if r.Deleted {
				if r.Persisted() {
					return true
				}
				continue
			}
			if r.Text != r.OriginalText {
				return true
			}
		}
	}
	return activeCount != s.RemoteCommentCount
}

// ActiveReplies returns a comment's replies that are not pending deletion,
// ordered by local id. This is a plain projection, not a memoized selector;
// reply maps are small.
func ActiveReplies(c comments.Comment) []comments.Reply {
	out := make([]comments.Reply, 0, len(c.Replies))
	for _, r := range c.Replies {
		if !r.Deleted {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
	return out
}
