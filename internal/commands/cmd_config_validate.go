package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/margin"
)

type ConfigCmd struct {
	flags *Flags
	app   *margin.App
}

// NewConfigCmd creates a new config command group
func NewConfigCmd(flags *Flags, app *margin.App) *ConfigCmd {
	return &ConfigCmd{flags: flags, app: app}
}

// Register adds the config command to the application
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration utilities",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate the configuration file and connection settings",
				UsageText: "margin config validate",
				Action:    cmd.runValidate,
			},
		},
	})

	return app
}

func (cmd *ConfigCmd) runValidate(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath); err != nil {
		return fmt.Errorf("config validation failed:\n%w", err)
	}

	fmt.Fprintln(c.Root().Writer, "Configuration is valid")
	return nil
}
