package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/pkg/iojson"
)

// commentInput is the JSON shape accepted by margin comment -f / stdin.
type commentInput struct {
	ContentPath string `json:"contentpath"`
	Position    string `json:"position,omitempty"`
	Text        string `json:"text"`
}

type CommentCmd struct {
	flags *Flags
	app   *margin.App

	// flags
	message  string
	position string
	reader   iojson.FileReader[commentInput]
}

// NewCommentCmd creates a new comment command
func NewCommentCmd(flags *Flags, app *margin.App) *CommentCmd {
	return &CommentCmd{flags: flags, app: app}
}

// Register adds the comment command to the application
func (cmd *CommentCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "comment",
		Usage:     "Add a comment to a content path",
		UsageText: "margin comment <contentpath> -m <text> [--position range]",
		Description: `Creates a comment anchored at the given content path and saves it.

The content path addresses a field in the document, e.g. "title" or
"blocks.0.caption". Position optionally narrows the anchor to a text range
within the field, e.g. "10-14".

Structured input is also accepted: pipe or pass -f a JSON object with
"contentpath", "position", and "text" keys.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "message",
				Aliases:     []string{"m"},
				Usage:       "comment text",
				Destination: &cmd.message,
			},
			&cli.StringFlag{
				Name:        "position",
				Usage:       "text range within the field, e.g. 10-14",
				Destination: &cmd.position,
			},
			cmd.reader.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CommentCmd) run(ctx context.Context, c *cli.Command) error {
	input, err := cmd.input(c)
	if err != nil {
		return err
	}

	if err := cmd.app.Comments.Load(ctx); err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	created, err := cmd.app.Comments.Add(ctx, input.ContentPath, input.Position, input.Text)
	if err != nil {
		return fmt.Errorf("save comment: %w", err)
	}

	fmt.Fprintf(c.Root().Writer, "Created comment %d on %s\n", created.RemoteID, created.ContentPath)
	return nil
}

func (cmd *CommentCmd) input(c *cli.Command) (commentInput, error) {
	// Flag form takes precedence; JSON form covers scripted callers.
	if cmd.message != "" {
		if c.Args().Len() != 1 {
			return commentInput{}, fmt.Errorf("expected exactly one contentpath argument")
		}
		return commentInput{
			ContentPath: c.Args().First(),
			Position:    cmd.position,
			Text:        cmd.message,
		}, nil
	}

	if !cmd.reader.Provided() {
		return commentInput{}, fmt.Errorf("no comment text; use -m or pipe JSON input")
	}

	input, err := cmd.reader.Read()
	if err != nil {
		return commentInput{}, err
	}
	if input.ContentPath == "" || input.Text == "" {
		return commentInput{}, fmt.Errorf("JSON input requires contentpath and text")
	}
	return input, nil
}
