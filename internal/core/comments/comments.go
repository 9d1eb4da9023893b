// Package comments defines the entities of the commenting subsystem: comment
// threads anchored to content paths, their replies, and the local identifier
// sequences that key them before the server assigns canonical ids.
package comments

import "time"

// Author identifies who wrote a comment or reply. Immutable once attached.
type Author struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Mode is the lifecycle state of a comment or reply.
type Mode string

const (
	ModeDefault       Mode = "default"
	ModeEditing       Mode = "editing"
	ModeSaving        Mode = "saving"
	ModeSaveError     Mode = "save_error"
	ModeDeleteConfirm Mode = "delete_confirm"
	ModeDeleting      Mode = "deleting"
	ModeDeleteError   Mode = "delete_error"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeDefault, ModeEditing, ModeSaving, ModeSaveError,
		ModeDeleteConfirm, ModeDeleting, ModeDeleteError:
		return true
	}
	return false
}

// transitions maps each mode to the modes a user-driven transition may enter.
// Save/delete outcomes (success, error, purge) arrive through dedicated
// reconciliation actions and bypass this table.
var transitions = map[Mode][]Mode{
	ModeDefault:       {ModeEditing, ModeDeleteConfirm, ModeSaving},
	ModeEditing:       {ModeDefault, ModeSaving},
	ModeSaving:        {ModeDefault, ModeSaveError},
	ModeSaveError:     {ModeDefault, ModeEditing, ModeSaving, ModeDeleteConfirm},
	ModeDeleteConfirm: {ModeDefault, ModeDeleting},
	ModeDeleting:      {ModeDeleteError},
	ModeDeleteError:   {ModeDefault, ModeEditing, ModeDeleteConfirm, ModeDeleting},
}

// CanTransition reports whether a mode change from m to target is allowed.
// A self-transition is always a no-op and always allowed.
func (m Mode) CanTransition(target Mode) bool {
	if m == target {
		return true
	}
	for _, t := range transitions[m] {
		if t == target {
			return true
		}
	}
	return false
}

// Reply is one threaded reply under a comment.
//
// RemoteID is zero until the reply has been persisted on the server. Text is
// the authoritative committed value; NewText stages an in-progress draft while
// Mode is editing so a cancel can discard it. OriginalText is the last value
// known to be saved remotely and drives the dirty check.
type Reply struct {
	LocalID      int64
	RemoteID     int64
	Mode         Mode
	Author       *Author
	Date         time.Time
	Text         string
	OriginalText string
	NewText      string
	Deleted      bool
}

// Comment is a thread root anchored to one location in the document.
//
// ContentPath identifies the logical location the comment is attached to and
// is immutable after creation. Position carries opaque serialized anchor data
// for re-locating the annotation within its content path. Annotation is an
// opaque handle owned by the rendering layer, nil until attached.
type Comment struct {
	LocalID          int64
	RemoteID         int64
	ContentPath      string
	Position         string
	Annotation       any
	Mode             Mode
	Author           *Author
	Date             time.Time
	Text             string
	OriginalText     string
	NewReply         string
	NewText          string
	Deleted          bool
	Resolved         bool
	RemoteReplyCount int
	Replies          map[int64]Reply
}

// Persisted reports whether the comment exists on the server.
func (c Comment) Persisted() bool { return c.RemoteID != 0 }

// Persisted reports whether the reply exists on the server.
func (r Reply) Persisted() bool { return r.RemoteID != 0 }

// ActiveReplyCount returns the number of replies not pending deletion.
func (c Comment) ActiveReplyCount() int {
	n := 0
	for _, r := range c.Replies {
		if !r.Deleted {
			n++
		}
	}
	return n
}

// NewLocalComment constructs a comment created in this process: fresh local
// id, editing mode, never persisted.
func NewLocalComment(seq *Sequence, author *Author, contentPath, position string, now time.Time) Comment {
	return Comment{
		LocalID:     seq.Next(),
		ContentPath: contentPath,
		Position:    position,
		Mode:        ModeEditing,
		Author:      author,
		Date:        now,
		Replies:     map[int64]Reply{},
	}
}

// NewLocalReply constructs a reply created in this process.
func NewLocalReply(seq *Sequence, author *Author, now time.Time) Reply {
	return Reply{
		LocalID: seq.Next(),
		Mode:    ModeEditing,
		Author:  author,
		Date:    now,
	}
}
