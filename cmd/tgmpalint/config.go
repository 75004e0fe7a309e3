// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/themecheck/tgmpalint/internal/config"
	"github.com/themecheck/tgmpalint/internal/issue"
)

// newConfigCommand creates the `tgmpalint config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tgmpalint configuration",
		Long: `Manage tgmpalint configuration.

Configuration is read from the first of:
  - the file given with --config
  - $XDG_CONFIG_HOME/tgmpalint/config.cue (platform config directory)
  - ./config.cue

Environment variables prefixed with TGMPALINT_ override file values, e.g.
TGMPALINT_OUTPUT_FORMAT=json.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				if rendered, rerr := issue.Get(issue.ConfigLoadFailedId).Render("auto"); rerr == nil {
					fmt.Fprint(app.stderr, rendered)
				}
				return err
			}
			source := SubtitleStyle.Render("(defaults)")
			if loaded.Path != "" {
				source = loaded.Path
			}
			fmt.Fprintf(app.stdout, "// %s: %s\n", CmdStyle.Render("source"), source)
			redacted := loaded.Redacted()
			fmt.Fprint(app.stdout, config.GenerateCUE(&redacted))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := app.configPath(rootFlags)
			if err != nil {
				return err
			}
			if err := config.WriteDefault(path, force); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return issue.NewErrorContext().
						WithOperation("write configuration").
						WithResource(path).
						WithSuggestion("Use --force to overwrite it").
						Wrap(err).
						BuildError()
				}
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Created"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := app.configPath(rootFlags)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}

// configPath is where `config init` writes: --config when given, otherwise
// the config directory.
func (a *App) configPath(flags *rootFlagValues) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	if a.configDir != "" {
		return filepath.Join(a.configDir, config.ConfigFileName+"."+config.ConfigFileExt), nil
	}
	return config.DefaultPath()
}
