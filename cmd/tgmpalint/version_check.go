// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/themecheck/tgmpalint/internal/release"
)

func newVersionCheckCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var (
		token string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "version-check",
		Short: "Show the latest stable TGM Plugin Activation release",
		Long: `Resolve the latest stable TGM Plugin Activation release from the GitHub API,
the version scans compare against. When the API cannot answer, the built-in
fallback version is shown together with the reason.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			loaded, err := app.loadConfig(ctx, rootFlags)
			if err != nil {
				return err
			}
			logger := app.newLogger(rootFlags.verbose || loaded.UI.Verbose)
			client, resolver := newResolver(loaded.Config, token, logger)

			if all {
				releases, err := client.ListReleases(ctx)
				if err != nil {
					return fmt.Errorf("list releases: %w", err)
				}
				for _, r := range releases {
					v, _ := release.NormalizeTag(r.TagName)
					date, _, _ := strings.Cut(r.PublishedAt, "T")
					fmt.Fprintf(app.stdout, "%s\t%s\n", v, date)
				}
				return nil
			}

			res := resolver.Resolve(ctx)
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render(res.Latest), SubtitleStyle.Render("("+string(res.Outcome)+")"))
			if res.Outcome != release.OutcomeAPI {
				msg := "GitHub API unavailable; showing the built-in fallback version"
				if res.Err != nil {
					msg = res.Err.Error() + "; showing the built-in fallback version"
				}
				fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "github-token", "", "GitHub API token (default from config or $GITHUB_TOKEN)")
	cmd.Flags().BoolVar(&all, "all", false, "list every stable release instead")
	return cmd
}
