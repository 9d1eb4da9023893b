// Package margin wires the comment state machine, the sync adapter, and the
// remote client into one application object consumed by commands and the TUI.
package margin

import (
	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/state"
	"github.com/colonyops/margin/internal/core/syncer"
	"github.com/colonyops/margin/internal/remote"
)

// App is the central entry point for all margin operations.
// Commands and TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Comments *CommentService
	Store    *state.Store
	Syncer   *syncer.Syncer
	Config   *config.Config

	// Shared id allocators; loaded and locally created entities draw from
	// the same space so ids never collide within a process.
	CommentSeq *comments.Sequence
	ReplySeq   *comments.Sequence
}

// NewApp constructs an App from a validated configuration.
func NewApp(cfg *config.Config) *App {
	client := remote.New(remote.Options{
		BaseURL:  cfg.API.BaseURL,
		Token:    cfg.API.Token,
		Document: cfg.Document,
		Timeout:  cfg.API.Timeout.Std(),
		Log:      logging.Component("remote"),
	})
	return NewAppWithClient(cfg, client)
}

// NewAppWithClient constructs an App over an explicit API client.
// Tests use this to substitute a fake backend.
func NewAppWithClient(cfg *config.Config, client syncer.Client) *App {
	store := state.NewStore(nil, logging.Component("store"))

	commentSeq := comments.NewSequence()
	replySeq := comments.NewSequence()

	sync := syncer.New(store, client, logging.Component("syncer"))
	loader := syncer.NewLoader(store, client, commentSeq, replySeq, logging.Component("loader"))

	var user *comments.Author
	if cfg.User.Name != "" {
		user = &comments.Author{ID: cfg.User.ID, Name: cfg.User.Name}
	}
	store.Dispatch(state.UpdateGlobalSettings{User: user})

	return &App{
		Comments:   NewCommentService(store, sync, loader, commentSeq, replySeq, logging.Component("comments")),
		Store:      store,
		Syncer:     sync,
		Config:     cfg,
		CommentSeq: commentSeq,
		ReplySeq:   replySeq,
	}
}
