package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/commands"
	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		marginApp = &margin.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "margin",
		Usage:     "Review and manage comments on CMS documents from the terminal",
		UsageText: "margin [global options] command [command options]",
		Description: `Margin is a terminal client for the CMS comment API.

Comments anchor to content paths like "title" or "blocks.0.caption" and can
carry threaded replies. Edits are staged locally and pushed in the background;
nothing is lost if a save fails, the next sync retries it.

Run 'margin' with no arguments to open the interactive review screen.
Run 'margin ls' to list open comment threads.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error, fatal)",
				Sources:     cli.EnvVars("MARGIN_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to the state directory)",
				Sources:     cli.EnvVars("MARGIN_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("MARGIN_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "document",
				Aliases:     []string{"d"},
				Usage:       "document whose comments to manage",
				Sources:     cli.EnvVars("MARGIN_DOCUMENT"),
				Destination: &flags.Document,
			},
			&cli.StringFlag{
				Name:        "api-url",
				Usage:       "base URL of the comment API (overrides config)",
				Destination: &flags.APIURL,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "API bearer token (overrides config)",
				Destination: &flags.Token,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.Document != "" {
				cfg.Document = flags.Document
			}
			if flags.APIURL != "" {
				cfg.API.BaseURL = flags.APIURL
			}
			if flags.Token != "" {
				cfg.API.Token = flags.Token
			}
			flags.Config = cfg

			// Connection settings are checked lazily: `margin config validate`
			// must be able to run against an incomplete config.
			if c.Args().First() != "config" {
				if err := cfg.ValidateDeep(flags.ConfigPath); err != nil {
					return ctx, fmt.Errorf("invalid config: %w", err)
				}
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*marginApp = *margin.NewApp(cfg)

			return logging.WithDocumentID(ctx, cfg.Document), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	reviewCmd := commands.NewReviewCmd(flags, marginApp)

	app = commands.NewLsCmd(flags, marginApp).Register(app)
	app = commands.NewCommentCmd(flags, marginApp).Register(app)
	app = commands.NewReplyCmd(flags, marginApp).Register(app)
	app = commands.NewResolveCmd(flags, marginApp).Register(app)
	app = commands.NewRmCmd(flags, marginApp).Register(app)
	app = commands.NewConfigCmd(flags, marginApp).Register(app)
	app = reviewCmd.Register(app)

	// Set the review screen as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'margin --help' for usage", c.Args().First())
		}
		return reviewCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
