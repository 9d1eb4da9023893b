package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/margin/internal/core/styles"
)

// EditorModal is a textarea dialog for composing or editing comment text.
// Commit with ctrl+s, cancel with esc.
type EditorModal struct {
	title     string
	input     textarea.Model
	committed bool
	cancelled bool
}

// NewEditorModal creates an editor modal seeded with the given text.
func NewEditorModal(title, text string, width int) EditorModal {
	input := textarea.New()
	input.Placeholder = "Write a comment..."
	input.CharLimit = 0
	input.SetWidth(max(20, width-8))
	input.SetHeight(6)
	input.SetValue(text)
	input.Focus()

	return EditorModal{
		title: title,
		input: input,
	}
}

// Init starts the cursor blink.
func (m EditorModal) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles input for the editor modal.
func (m EditorModal) Update(msg tea.Msg) (EditorModal, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+s":
			m.committed = true
			return m, nil
		case "esc":
			m.cancelled = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the editor modal.
func (m EditorModal) View() string {
	title := styles.ModalTitleStyle.Render(m.title)
	help := styles.ModalHelpStyle.Render("ctrl+s save • esc cancel")

	return styles.ModalStyle.Render(title + "\n\n" + m.input.View() + "\n\n" + help)
}

// Text returns the current editor contents.
func (m EditorModal) Text() string {
	return m.input.Value()
}

// Committed returns true once the user saved.
func (m EditorModal) Committed() bool {
	return m.committed
}

// Cancelled returns true once the user cancelled.
func (m EditorModal) Cancelled() bool {
	return m.cancelled
}
