// Package command contains the CLI command constructors.
package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gatekeeper/internal/config"
)

// RootCommand instantiates the root command, with all sub-commands bound.
func RootCommand() *cobra.Command {
	var configFilePath string
	cmd := &cobra.Command{
		Use:          "gatekeeper [command] [flags]",
		Short:        "Session based user registration and login service",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFilePath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &env{cfg: cfg, logger: logger}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(
		&configFilePath,
		"config", "c",
		"",
		"path to the configuration file (default ./config.*)",
	)

	cmd.AddCommand(
		serveCommand(),
		userCommand(),
	)

	return cmd
}
