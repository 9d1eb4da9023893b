// Package tui implements the interactive comment review screen.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/state"
	"github.com/colonyops/margin/internal/core/state/selectors"
	"github.com/colonyops/margin/internal/margin"
)

type stateMsg struct{ state *state.CommentsState }

type loadDoneMsg struct{ err error }

type syncDoneMsg struct{ err error }

type autosaveTickMsg time.Time

type modalKind int

const (
	modalNone modalKind = iota
	modalEdit
	modalReply
	modalConfirmDelete
)

// Model is the root bubbletea model for the review screen.
type Model struct {
	app *margin.App
	log zerolog.Logger

	st       *state.CommentsState
	listSel  func(*state.CommentsState) []comments.Comment
	dirtySel func(*state.CommentsState) bool

	cursor  int
	width   int
	height  int
	loading bool
	syncing bool
	lastErr error

	modal   modalKind
	editor  EditorModal
	confirm ConfirmModal
	// target is the localId the open modal acts on.
	target int64

	markdown *glamour.TermRenderer
	interval time.Duration
}

// NewModel creates the review screen model over an App.
func NewModel(app *margin.App) Model {
	return Model{
		app:      app,
		log:      logging.Component("tui"),
		st:       app.Store.State(),
		listSel:  selectors.All(),
		dirtySel: selectors.IsDirty(),
		loading:  true,
		interval: app.Config.Sync.AutosaveInterval.Std(),
	}
}

// Init loads the remote comments and starts the autosave ticker.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadCmd()}
	if m.interval > 0 {
		cmds = append(cmds, m.tickCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles all messages for the review screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(min(80, max(40, msg.Width-4))),
		); err == nil {
			m.markdown = r
		}
		return m, nil

	case stateMsg:
		m.st = msg.state
		m.clampCursor()
		return m, nil

	case loadDoneMsg:
		m.loading = false
		m.lastErr = msg.err
		return m, nil

	case syncDoneMsg:
		m.syncing = false
		m.lastErr = msg.err
		return m, nil

	case autosaveTickMsg:
		cmds := []tea.Cmd{m.tickCmd()}
		if !m.syncing && m.dirtySel(m.st) {
			m.syncing = true
			cmds = append(cmds, m.syncCmd())
		}
		return m, tea.Batch(cmds...)
	}

	if m.modal != modalNone {
		return m.updateModal(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(keyMsg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		m.cursor++
		m.clampCursor()
		return m, nil

	case "k", "up":
		m.cursor--
		m.clampCursor()
		return m, nil

	case "e":
		c, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.app.Store.Dispatch(state.SetFocusedComment{LocalID: c.LocalID, ForceFocus: true})
		// Pin the comment while it is mid-edit so it stays visible.
		m.app.Store.Dispatch(state.SetPinnedComment{LocalID: c.LocalID})
		m.app.Store.Dispatch(state.SetCommentMode{LocalID: c.LocalID, Mode: comments.ModeEditing})
		m.modal = modalEdit
		m.target = c.LocalID
		m.editor = NewEditorModal("Edit comment", c.Text, m.width)
		return m, m.editor.Init()

	case "r":
		c, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.modal = modalReply
		m.target = c.LocalID
		// Resume an abandoned reply draft if one is staged on the parent.
		m.editor = NewEditorModal("Reply", c.NewReply, m.width)
		return m, m.editor.Init()

	case "d":
		c, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.app.Store.Dispatch(state.SetCommentMode{LocalID: c.LocalID, Mode: comments.ModeDeleteConfirm})
		m.modal = modalConfirmDelete
		m.target = c.LocalID
		m.confirm = NewConfirmModal("Delete this comment and its replies?")
		return m, nil

	case "x":
		c, ok := m.selected()
		if !ok || !c.Persisted() {
			return m, nil
		}
		return m, m.resolveCmd(c.LocalID, !c.Resolved)

	case "s":
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		return m, m.syncCmd()
	}

	return m, nil
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalEdit, modalReply:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)

		switch {
		case m.editor.Cancelled():
			if m.modal == modalEdit {
				// Discard the draft.
				m.app.Store.Dispatch(state.SetCommentMode{LocalID: m.target, Mode: comments.ModeDefault})
				m.app.Store.Dispatch(state.SetPinnedComment{LocalID: 0})
			} else {
				// Keep the half-written reply; reopening the modal resumes it.
				m.app.Store.Dispatch(state.UpdateNewReply{CommentLocalID: m.target, Text: m.editor.Text()})
			}
			m.modal = modalNone
			return m, nil

		case m.editor.Committed():
			text := m.editor.Text()
			target := m.target
			kind := m.modal
			m.modal = modalNone
			m.syncing = true
			if kind == modalEdit {
				m.app.Store.Dispatch(state.SetPinnedComment{LocalID: 0})
				return m, m.saveEditCmd(target, text)
			}
			return m, m.saveReplyCmd(target, text)
		}
		return m, cmd

	case modalConfirmDelete:
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)

		switch {
		case m.confirm.Cancelled():
			m.app.Store.Dispatch(state.SetCommentMode{LocalID: m.target, Mode: comments.ModeDefault})
			m.modal = modalNone
			return m, nil

		case m.confirm.Confirmed():
			target := m.target
			m.modal = modalNone
			m.syncing = true
			return m, m.deleteCmd(target)
		}
		return m, cmd
	}

	m.modal = modalNone
	return m, nil
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: m.app.Comments.Load(context.Background())}
	}
}

func (m Model) syncCmd() tea.Cmd {
	return func() tea.Msg {
		return syncDoneMsg{err: m.app.Syncer.Sync(context.Background())}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return autosaveTickMsg(t)
	})
}

func (m Model) saveEditCmd(localID int64, text string) tea.Cmd {
	store := m.app.Store
	return func() tea.Msg {
		store.Dispatch(state.UpdateComment{LocalID: localID, Text: text})
		store.Dispatch(state.SetCommentMode{LocalID: localID, Mode: comments.ModeSaving})
		return syncDoneMsg{err: m.app.Syncer.Sync(context.Background())}
	}
}

func (m Model) saveReplyCmd(parentLocalID int64, text string) tea.Cmd {
	store := m.app.Store
	return func() tea.Msg {
		user := store.State().Settings.User
		r := comments.NewLocalReply(m.app.ReplySeq, user, time.Now())
		store.Dispatch(state.AddReply{CommentLocalID: parentLocalID, Reply: r})
		store.Dispatch(state.UpdateReply{CommentLocalID: parentLocalID, LocalID: r.LocalID, Text: text})
		store.Dispatch(state.SetReplyMode{CommentLocalID: parentLocalID, LocalID: r.LocalID, Mode: comments.ModeSaving})
		store.Dispatch(state.UpdateNewReply{CommentLocalID: parentLocalID, Text: ""})
		return syncDoneMsg{err: m.app.Syncer.Sync(context.Background())}
	}
}

func (m Model) deleteCmd(localID int64) tea.Cmd {
	store := m.app.Store
	return func() tea.Msg {
		store.Dispatch(state.DeleteComment{LocalID: localID})
		return syncDoneMsg{err: m.app.Syncer.Sync(context.Background())}
	}
}

func (m Model) resolveCmd(localID int64, resolved bool) tea.Cmd {
	return func() tea.Msg {
		return syncDoneMsg{err: m.app.Syncer.PushResolve(context.Background(), localID, resolved)}
	}
}

func (m Model) selected() (comments.Comment, bool) {
	list := m.listSel(m.st)
	if len(list) == 0 || m.cursor >= len(list) {
		return comments.Comment{}, false
	}
	return list[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.listSel(m.st))
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
