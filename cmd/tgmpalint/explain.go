// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/themecheck/tgmpalint/internal/issue"
	"github.com/themecheck/tgmpalint/internal/sniff"
)

func newExplainCommand(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe a finding or error code",
		Long: `Describe a finding or error code and how to resolve it.

Without an argument, every known code is listed.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			codes := make([]string, 0, len(issue.Values()))
			for _, i := range issue.Values() {
				codes = append(codes, i.Code())
			}
			return codes, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listCodes(app)
				return nil
			}
			return explainCode(app, args[0], style)
		},
	}
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light or notty")
	return cmd
}

func listCodes(app *App) {
	fmt.Fprintln(app.stdout, TitleStyle.Render("Finding codes"))
	for _, kind := range sniff.Kinds() {
		sev := WarningStyle.Render(string(kind.Severity()))
		if kind.Severity() == sniff.SeverityError {
			sev = ErrorStyle.Render(string(kind.Severity()))
		}
		fmt.Fprintf(app.stdout, "  %-24s %s\n", CmdStyle.Render(kind.Code()), sev)
	}

	fmt.Fprintln(app.stdout)
	fmt.Fprintln(app.stdout, TitleStyle.Render("Error codes"))
	for _, i := range issue.Values() {
		if _, ok := sniff.KindByCode(i.Code()); ok {
			continue
		}
		fmt.Fprintf(app.stdout, "  %s\n", CmdStyle.Render(i.Code()))
	}
}

func explainCode(app *App, code, style string) error {
	i, ok := issue.Lookup(strings.TrimSpace(code))
	if !ok {
		return fmt.Errorf("unknown code %q; run 'tgmpalint explain' to list codes", code)
	}
	rendered, err := i.Render(style)
	if err != nil {
		return fmt.Errorf("render %s: %w", i.Code(), err)
	}
	fmt.Fprint(app.stdout, rendered)
	return nil
}
