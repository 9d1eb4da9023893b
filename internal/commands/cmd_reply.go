package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/margin"
)

type ReplyCmd struct {
	flags *Flags
	app   *margin.App

	// flags
	message string
}

// NewReplyCmd creates a new reply command
func NewReplyCmd(flags *Flags, app *margin.App) *ReplyCmd {
	return &ReplyCmd{flags: flags, app: app}
}

// Register adds the reply command to the application
func (cmd *ReplyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "reply",
		Usage:     "Reply to an existing comment",
		UsageText: "margin reply <comment-id> -m <text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "message",
				Aliases:     []string{"m"},
				Usage:       "reply text",
				Required:    true,
				Destination: &cmd.message,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ReplyCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := commentIDArg(c)
	if err != nil {
		return err
	}

	if err := cmd.app.Comments.Load(ctx); err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	reply, err := cmd.app.Comments.Reply(ctx, id, cmd.message)
	if err != nil {
		return fmt.Errorf("save reply: %w", err)
	}

	fmt.Fprintf(c.Root().Writer, "Created reply %d on comment %d\n", reply.RemoteID, id)
	return nil
}

// commentIDArg parses the single <comment-id> positional argument.
func commentIDArg(c *cli.Command) (int64, error) {
	if c.Args().Len() != 1 {
		return 0, fmt.Errorf("expected exactly one comment id argument")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid comment id %q", c.Args().First())
	}
	return id, nil
}
