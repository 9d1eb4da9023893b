package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/margin/internal/core/state"
	"github.com/colonyops/margin/internal/margin"
)

// Run starts the interactive review screen and blocks until the user quits.
// Store updates from any goroutine (autosave included) are forwarded into the
// program as messages, so the screen always renders the latest snapshot.
func Run(ctx context.Context, app *margin.App) error {
	p := tea.NewProgram(NewModel(app), tea.WithAltScreen(), tea.WithContext(ctx))

	app.Store.Subscribe(func(s *state.CommentsState) {
		p.Send(stateMsg{state: s})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
