package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/margin"
)

type RmCmd struct {
	flags *Flags
	app   *margin.App

	// flags
	replyID int64
}

// NewRmCmd creates a new rm command
func NewRmCmd(flags *Flags, app *margin.App) *RmCmd {
	return &RmCmd{flags: flags, app: app}
}

// Register adds the rm command to the application
func (cmd *RmCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "rm",
		Usage:     "Delete a comment or a single reply",
		UsageText: "margin rm <comment-id> [--reply id]",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "reply",
				Usage:       "delete only this reply instead of the whole thread",
				Destination: &cmd.replyID,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RmCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := commentIDArg(c)
	if err != nil {
		return err
	}

	if err := cmd.app.Comments.Load(ctx); err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	if cmd.replyID != 0 {
		if err := cmd.app.Comments.RemoveReply(ctx, id, cmd.replyID); err != nil {
			return fmt.Errorf("delete reply: %w", err)
		}
		fmt.Fprintf(c.Root().Writer, "Deleted reply %d on comment %d\n", cmd.replyID, id)
		return nil
	}

	if err := cmd.app.Comments.Remove(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	fmt.Fprintf(c.Root().Writer, "Deleted comment %d\n", id)
	return nil
}
