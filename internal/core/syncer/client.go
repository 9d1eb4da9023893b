// Package syncer bridges the pure comment state to the remote comment API.
// It snapshots dirty entities, issues one network operation per entity, and
// folds responses back into the store as reconciliation actions. The reducer
// never suspends; all network suspension lives here.
package syncer

import (
	"context"
	"time"

	"github.com/colonyops/margin/internal/core/comments"
)

// RemoteReply is one persisted reply as the server reports it.
type RemoteReply struct {
	RemoteID int64
	Text     string
	Author   *comments.Author
	Date     time.Time
}

// RemoteComment is one persisted comment thread as the server reports it.
type RemoteComment struct {
	RemoteID    int64
	ContentPath string
	Position    string
	Text        string
	Author      *comments.Author
	Date        time.Time
	Resolved    bool
	Replies     []RemoteReply
}

// Saved is the server's echo for a created or updated entity.
type Saved struct {
	RemoteID int64
	Author   *comments.Author
	Date     time.Time
}

// NewComment carries the fields needed to create a comment remotely.
type NewComment struct {
	ContentPath string
	Position    string
	Text        string
}

// Client is the remote comment API surface the syncer drives. Implementations
// must be safe for concurrent use; the syncer issues operations for different
// entities in parallel.
type Client interface {
	ListComments(ctx context.Context) ([]RemoteComment, error)
	CreateComment(ctx context.Context, c NewComment) (Saved, error)
	UpdateComment(ctx context.Context, remoteID int64, text string) (Saved, error)
	DeleteComment(ctx context.Context, remoteID int64) error
	ResolveComment(ctx context.Context, remoteID int64, resolved bool) error
	CreateReply(ctx context.Context, commentRemoteID int64, text string) (Saved, error)
	UpdateReply(ctx context.Context, commentRemoteID, replyRemoteID int64, text string) (Saved, error)
	DeleteReply(ctx context.Context, commentRemoteID, replyRemoteID int64) error
}
