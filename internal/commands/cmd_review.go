package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/tui"
)

type ReviewCmd struct {
	flags *Flags
	app   *margin.App
}

// NewReviewCmd creates a new review command
func NewReviewCmd(flags *Flags, app *margin.App) *ReviewCmd {
	return &ReviewCmd{flags: flags, app: app}
}

// Register adds the review command to the application
func (cmd *ReviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "review",
		Usage:     "Open the interactive comment review screen",
		UsageText: "margin review",
		Description: `Opens a full-screen view of the document's comment threads.

Edits, replies, deletions, and resolutions made in the screen are pushed to
the server in the background on the configured autosave interval.`,
		Action: cmd.Run,
	})

	return app
}

// Run starts the TUI. Exposed so the root command can use it as the default
// action when no subcommand is given.
func (cmd *ReviewCmd) Run(ctx context.Context, c *cli.Command) error {
	return tui.Run(ctx, cmd.app)
}
