package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/margin"
)

type ResolveCmd struct {
	flags *Flags
	app   *margin.App

	// flags
	undo bool
}

// NewResolveCmd creates a new resolve command
func NewResolveCmd(flags *Flags, app *margin.App) *ResolveCmd {
	return &ResolveCmd{flags: flags, app: app}
}

// Register adds the resolve command to the application
func (cmd *ResolveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a comment thread",
		UsageText: "margin resolve <comment-id> [--undo]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "undo",
				Usage:       "reopen a previously resolved comment",
				Destination: &cmd.undo,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ResolveCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := commentIDArg(c)
	if err != nil {
		return err
	}

	if err := cmd.app.Comments.Load(ctx); err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	if err := cmd.app.Comments.Resolve(ctx, id, !cmd.undo); err != nil {
		return fmt.Errorf("resolve comment: %w", err)
	}

	verb := "Resolved"
	if cmd.undo {
		verb = "Reopened"
	}
	fmt.Fprintf(c.Root().Writer, "%s comment %d\n", verb, id)
	return nil
}
