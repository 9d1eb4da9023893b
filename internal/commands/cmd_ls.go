package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/margin/internal/core/comments"
	"github.com/colonyops/margin/internal/core/state/selectors"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/pkg/iojson"
)

type LsCmd struct {
	flags *Flags
	app   *margin.App

	// flags
	jsonOutput bool
	pattern    string
	resolved   bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *margin.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List comments on the document",
		UsageText: "margin ls [--path pattern] [--json]",
		Description: `Displays a table of open comments with their id, content path, author, and text.

Content paths are dot-separated; --path accepts glob patterns, so
'margin ls --path "blocks.*.caption"' lists caption comments on any block
and 'margin ls --path "blocks.**"' lists everything under blocks.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.StringFlag{
				Name:        "path",
				Aliases:     []string{"p"},
				Usage:       "filter by content path glob pattern",
				Destination: &cmd.pattern,
			},
			&cli.BoolFlag{
				Name:        "resolved",
				Usage:       "include resolved comments",
				Destination: &cmd.resolved,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	if err := cmd.app.Comments.Load(ctx); err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	list, err := cmd.list()
	if err != nil {
		return err
	}

	if len(list) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "No comments found\n")
		}
		return nil
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, cm := range list {
			if err := iojson.WriteLine(out, buildCommentInfo(cm)); err != nil {
				return fmt.Errorf("encode comment: %w", err)
			}
		}
		return nil
	}

	width := 120
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		width = w
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPATH\tAUTHOR\tREPLIES\tSTATE\tTEXT")

	for _, cm := range list {
		st := "open"
		if cm.Resolved {
			st = "resolved"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
			cm.RemoteID, cm.ContentPath, authorName(cm.Author), cm.ActiveReplyCount(), st, truncate(cm.Text, width/2))
	}

	return w.Flush()
}

func (cmd *LsCmd) list() ([]comments.Comment, error) {
	if !cmd.resolved {
		return cmd.app.Comments.List(cmd.pattern)
	}

	// Include resolved comments: filter the raw map ourselves.
	var out []comments.Comment
	for _, c := range selectors.Comments(cmd.app.Store.State()) {
		if !c.Deleted {
			out = append(out, c)
		}
	}
	return filterPattern(out, cmd.pattern)
}

func filterPattern(list []comments.Comment, pattern string) ([]comments.Comment, error) {
	if pattern == "" {
		return list, nil
	}

	// Content paths are dot-separated; doublestar matches on slashes.
	p := strings.ReplaceAll(pattern, ".", "/")
	if !doublestar.ValidatePattern(p) {
		return nil, fmt.Errorf("invalid path pattern %q", pattern)
	}

	var out []comments.Comment
	for _, c := range list {
		ok, err := doublestar.Match(p, strings.ReplaceAll(c.ContentPath, ".", "/"))
		if err == nil && ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// commentInfo is the JSON output format for margin ls --json.
type commentInfo struct {
	ID       int64  `json:"id"`
	Path     string `json:"path"`
	Author   string `json:"author,omitempty"`
	Text     string `json:"text"`
	Resolved bool   `json:"resolved"`
	Replies  int    `json:"replies"`
	Date     string `json:"date,omitempty"`
}

func buildCommentInfo(c comments.Comment) commentInfo {
	info := commentInfo{
		ID:       c.RemoteID,
		Path:     c.ContentPath,
		Author:   authorName(c.Author),
		Text:     c.Text,
		Resolved: c.Resolved,
		Replies:  c.ActiveReplyCount(),
	}
	if !c.Date.IsZero() {
		info.Date = c.Date.UTC().Format("2006-01-02T15:04:05Z")
	}
	return info
}

func authorName(a *comments.Author) string {
	if a == nil {
		return ""
	}
	return a.Name
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
