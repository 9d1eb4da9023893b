package tui

import (
	"fmt"
	"strings"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/state/selectors"
	"github.com/colonyops/margin/internal/core/styles"
)

// View renders the review screen.
func (m Model) View() string {
	if m.modal != modalNone {
		return m.modalView()
	}

	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("margin"))
	b.WriteString(styles.MutedStyle.Render("  document " + m.app.Config.Document))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(styles.MutedStyle.Render("Loading comments..."))
		b.WriteString("\n")
		return b.String()
	}

	list := m.listSel(m.st)
	if len(list) == 0 {
		b.WriteString(styles.MutedStyle.Render("No open comments."))
		b.WriteString("\n")
	}

	for i, c := range list {
		b.WriteString(m.commentLine(i, c))
		b.WriteString("\n")
	}

	if c, ok := m.selected(); ok {
		b.WriteString("\n")
		b.WriteString(m.detailView(c))
	}

	b.WriteString("\n")
	b.WriteString(m.statusBar(len(list)))
	return b.String()
}

func (m Model) modalView() string {
	switch m.modal {
	case modalEdit, modalReply:
		return m.editor.View()
	case modalConfirmDelete:
		return m.confirm.View()
	}
	return ""
}

func (m Model) commentLine(i int, c comments.Comment) string {
	marker := "  "
	if i == m.cursor {
		marker = styles.SelectedStyle.Render("> ")
	}

	path := styles.PathStyle.Render(c.ContentPath)
	author := styles.AuthorStyle.Render(authorName(c.Author))

	text := firstLine(c.Text)
	if c.Resolved {
		text = styles.ResolvedStyle.Render(text)
	}

	line := fmt.Sprintf("%s%s  %s  %s", marker, path, author, text)

	if n := c.ActiveReplyCount(); n > 0 {
		line += styles.MutedStyle.Render(fmt.Sprintf("  (%d replies)", n))
	}
	if badge := modeBadge(c.Mode); badge != "" {
		line += "  " + badge
	}
	return line
}

func (m Model) detailView(c comments.Comment) string {
	var b strings.Builder

	b.WriteString(styles.MutedStyle.Render(strings.Repeat("─", max(10, min(m.width, 80)))))
	b.WriteString("\n")
	b.WriteString(m.renderMarkdown(c.Text))
	b.WriteString("\n")

	for _, r := range selectors.ActiveReplies(c) {
		b.WriteString(styles.AuthorStyle.Render("  ↳ " + authorName(r.Author)))
		if badge := modeBadge(r.Mode); badge != "" {
			b.WriteString("  " + badge)
		}
		b.WriteString("\n")
		b.WriteString("    " + firstLine(r.Text))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) statusBar(visible int) string {
	indicator := styles.SyncedStyle.Render("● synced")
	switch {
	case m.syncing:
		indicator = styles.DirtyIndicatorStyle.Render("● saving...")
	case m.dirtySel(m.st):
		indicator = styles.DirtyIndicatorStyle.Render("● unsaved changes")
	}

	parts := []string{
		indicator,
		styles.StatusBarStyle.Render(fmt.Sprintf("%d comments", visible)),
		styles.StatusBarStyle.Render("j/k move • e edit • r reply • d delete • x resolve • s sync • q quit"),
	}
	if m.lastErr != nil {
		parts = append(parts, styles.ErrorStyle.Render(m.lastErr.Error()))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderMarkdown(text string) string {
	if m.markdown != nil {
		if out, err := m.markdown.Render(text); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return text
}

func modeBadge(mode comments.Mode) string {
	switch mode {
	case comments.ModeSaving, comments.ModeDeleting:
		return styles.DirtyIndicatorStyle.Render("[saving]")
	case comments.ModeSaveError:
		return styles.ErrorStyle.Render("[save failed]")
	case comments.ModeDeleteError:
		return styles.ErrorStyle.Render("[delete failed]")
	case comments.ModeEditing:
		return styles.MutedStyle.Render("[editing]")
	}
	return ""
}

func authorName(a *comments.Author) string {
	if a == nil {
		return "anonymous"
	}
	return a.Name
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
