// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/themecheck/tgmpalint/internal/baseline"
	"github.com/themecheck/tgmpalint/internal/config"
	"github.com/themecheck/tgmpalint/internal/metrics"
	"github.com/themecheck/tgmpalint/internal/release"
	"github.com/themecheck/tgmpalint/internal/report"
	"github.com/themecheck/tgmpalint/internal/scan"
	"github.com/themecheck/tgmpalint/internal/watch"
)

// scanFlagValues holds the flags of `tgmpalint scan`.
type scanFlagValues struct {
	format         string
	strict         bool
	jobs           int
	githubToken    string
	baselinePath   string
	updateBaseline string
	metricsFile    string
	watch          bool
}

// scanSession is everything one scan invocation reuses across runs in watch
// mode: the resolver is queried once per process.
type scanSession struct {
	runner   *scan.Runner
	reporter report.Reporter
	baseline *baseline.Baseline
	recorder *metrics.Recorder
	flags    *scanFlagValues
	strict   bool
	logger   *log.Logger
	stderr   io.Writer
}

func newScanCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &scanFlagValues{}

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan PHP sources for bundled TGM Plugin Activation copies",
		Long: `Scan files and directories (default: the current directory) for bundled
copies of TGM Plugin Activation and report version and provenance problems.

The command exits with status 1 when an error-severity finding is reported,
or any finding at all with --strict.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, app, rootFlags, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.format, "format", "f", "", "output format: text, json or yaml (default from config)")
	f.BoolVar(&flags.strict, "strict", false, "exit non-zero on warnings too")
	f.IntVarP(&flags.jobs, "jobs", "j", 0, "parallel file workers (default: one per CPU)")
	f.StringVar(&flags.githubToken, "github-token", "", "GitHub API token (default from config or $GITHUB_TOKEN)")
	f.StringVar(&flags.baselinePath, "baseline", "", "TOML file of accepted findings to suppress")
	f.StringVar(&flags.updateBaseline, "update-baseline", "", "write the findings of this run to a baseline file")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format after each run")
	f.BoolVarP(&flags.watch, "watch", "w", false, "re-scan when files change")

	return cmd
}

func runScan(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *scanFlagValues, args []string) error {
	ctx := cmd.Context()

	loaded, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	applyScanFlags(cmd, cfg, flags)
	if valid, errs := cfg.Output.Format.IsValid(); !valid {
		return errs[0]
	}

	logger := app.newLogger(rootFlags.verbose || cfg.UI.Verbose)
	if loaded.Path != "" {
		logger.Debug("loaded configuration", "path", loaded.Path)
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	bl, err := baseline.Load(flags.baselinePath)
	if err != nil {
		return err
	}
	reporter, err := report.New(string(cfg.Output.Format), app.stdout)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder()
	_, resolver := newResolver(cfg, flags.githubToken, logger,
		release.WithOnResolved(func(res release.Result) { recorder.Resolved(string(res.Outcome)) }))
	filter := scan.Filter{
		Include:     cfg.Scan.Include,
		Exclude:     cfg.Scan.Exclude,
		MaxFileSize: cfg.Scan.MaxFileSize,
	}
	s := &scanSession{
		runner: scan.NewRunner(resolver, scan.Options{Filter: filter, Jobs: cfg.Scan.Jobs},
			scan.WithLogger(logger), scan.WithObserver(recorder)),
		reporter: reporter,
		baseline: bl,
		recorder: recorder,
		flags:    flags,
		strict:   cfg.Output.Strict,
		logger:   logger,
		stderr:   app.stderr,
	}

	code, err := s.run(ctx, paths)
	if err != nil {
		return err
	}
	if flags.watch {
		return s.watch(ctx, paths, filter, rootFlags.verbose)
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// applyScanFlags overlays explicitly set flags on the loaded configuration.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config, flags *scanFlagValues) {
	f := cmd.Flags()
	if f.Changed("format") {
		cfg.Output.Format = config.OutputFormat(flags.format)
	}
	if f.Changed("strict") {
		cfg.Output.Strict = flags.strict
	}
	if f.Changed("jobs") {
		cfg.Scan.Jobs = flags.jobs
	}
}

// run performs one scan and reports it, returning the exit code the findings
// call for.
func (s *scanSession) run(ctx context.Context, paths []string) (int, error) {
	res, err := s.runner.Run(ctx, paths)
	if err != nil {
		return 0, err
	}
	s.recorder.RunCompleted(res.Stats.Duration)

	if s.flags.updateBaseline != "" {
		updated := baseline.FromResult(res)
		if err := updated.Write(s.flags.updateBaseline); err != nil {
			return 0, err
		}
		s.logger.Info("baseline updated", "path", s.flags.updateBaseline, "entries", updated.Len())
	}

	rep := report.Build(res, s.baseline)
	if err := s.reporter.Write(rep); err != nil {
		return 0, err
	}

	if s.flags.metricsFile != "" {
		if err := s.recorder.WriteTextfile(s.flags.metricsFile); err != nil {
			return 0, err
		}
	}
	return rep.ExitCode(s.strict), nil
}

// watch re-runs the scan whenever matching files change until ctx ends.
func (s *scanSession) watch(ctx context.Context, paths []string, filter scan.Filter, verbose bool) error {
	w, err := watch.New(watch.Config{
		Roots:   paths,
		Include: filter.Include,
		Exclude: filter.Exclude,
		Logger:  s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			s.logger.Debug("re-scanning", "changed", changed)
			if _, err := s.run(ctx, paths); err != nil {
				fmt.Fprintln(s.stderr, WarningStyle.Render("Scan failed: ")+formatErrorForDisplay(err, verbose))
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintln(s.stderr, SubtitleStyle.Render("Watching for changes (Ctrl+C to stop)..."))
	return w.Run(ctx)
}
