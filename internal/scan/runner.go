// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/themecheck/tgmpalint/internal/phptoken"
	"github.com/themecheck/tgmpalint/internal/release"
	"github.com/themecheck/tgmpalint/internal/sniff"
)

type (
	// LatestResolver yields the latest upstream version. *release.Resolver
	// implements it.
	LatestResolver interface {
		Resolve(ctx context.Context) release.Result
	}

	// Observer receives run events, typically to update metrics. Methods may
	// be called concurrently.
	Observer interface {
		FileScanned()
		VendorDetected()
		Finding(code string)
	}

	// Options configures a Runner.
	Options struct {
		Filter
		// Jobs is the number of parallel file workers; zero means one per CPU.
		Jobs int
	}

	// Located is a finding with its file position resolved.
	Located struct {
		sniff.Finding
		Path string
		Line int
		Col  int
	}

	// FileResult holds the outcome of scanning one file.
	FileResult struct {
		Path string
		// Vendor is true when the file was recognized as TGMPA.
		Vendor   bool
		Findings []Located
	}

	// Stats summarises a run.
	Stats struct {
		FilesScanned int
		FilesSkipped int
		VendorFiles  int
		Duration     time.Duration
	}

	// Result is the outcome of one run.
	Result struct {
		// Files holds every scanned file ordered by path.
		Files []FileResult
		// Notices are run-wide findings about version resolution.
		Notices []sniff.Finding
		Skipped []Skipped
		// Resolution is the version every file was compared against.
		Resolution release.Result
		Stats      Stats
	}

	// Runner scans file trees for bundled TGMPA copies.
	Runner struct {
		resolver LatestResolver
		opts     Options
		logger   *log.Logger
		observer Observer
	}

	// RunnerOption configures a Runner during construction.
	RunnerOption func(*Runner)
)

// WithLogger sets the logger for run diagnostics.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers an observer of run events.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewRunner creates a Runner. The resolver is queried at the start of every
// run; a *release.Resolver answers from cache after the first query.
func NewRunner(resolver LatestResolver, opts Options, ropts ...RunnerOption) *Runner {
	r := &Runner{
		resolver: resolver,
		opts:     opts,
		logger:   discardLogger(),
		observer: nopObserver{},
	}
	for _, opt := range ropts {
		opt(r)
	}
	return r
}

// Run discovers files under paths and checks each one. Every run gets a fresh
// sniff.ScanState, so resolver notices are reported once per run.
func (r *Runner) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()

	candidates, skipped, err := Discover(ctx, paths, r.opts.Filter, r.logger)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("discovered files", "count", len(candidates), "skipped", len(skipped))

	resolution := r.resolver.Resolve(ctx)
	state := sniff.NewScanState(resolution.Latest, noticeFor(resolution.Err))

	files := make([]FileResult, len(candidates))
	var unreadable []Skipped
	unreadableCh := make(chan Skipped, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs())
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.scanFile(state, c.Path)
			if err != nil {
				r.logger.Warn("skipping unreadable file", "path", c.Path, "err", err)
				unreadableCh <- Skipped{Path: c.Path, Reason: err.Error()}
				return nil
			}
			files[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan canceled: %w", err)
	}
	close(unreadableCh)
	for s := range unreadableCh {
		unreadable = append(unreadable, s)
	}

	result := &Result{
		Skipped:    slices.Concat(skipped, unreadable),
		Resolution: resolution,
	}
	for _, fr := range files {
		if fr.Path == "" {
			continue
		}
		// Resolver notices surface on whichever file ran first; they belong
		// to the run rather than to that file.
		kept := fr.Findings[:0]
		for _, f := range fr.Findings {
			if isNotice(f.Kind) {
				result.Notices = append(result.Notices, f.Finding)
				continue
			}
			kept = append(kept, f)
		}
		fr.Findings = kept
		result.Files = append(result.Files, fr)
		if fr.Vendor {
			result.Stats.VendorFiles++
		}
	}
	result.Stats.FilesScanned = len(result.Files)
	result.Stats.FilesSkipped = len(result.Skipped)
	result.Stats.Duration = time.Since(start)

	for _, f := range result.Notices {
		r.observer.Finding(f.Kind.Code())
	}
	r.logger.Debug("scan complete",
		"files", result.Stats.FilesScanned, "vendor", result.Stats.VendorFiles,
		"latest", resolution.Latest, "duration", result.Stats.Duration)

	return result, nil
}

func (r *Runner) scanFile(state *sniff.ScanState, path string) (FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, err
	}
	r.observer.FileScanned()

	src := phptoken.Parse(path, data)
	findings := sniff.ScanFile(state, src)

	res := FileResult{Path: path, Vendor: state.Checked(path)}
	if res.Vendor {
		r.observer.VendorDetected()
		r.logger.Debug("TGMPA detected", "path", path)
	}
	for _, f := range findings {
		line, col := src.LineCol(f.Pos)
		res.Findings = append(res.Findings, Located{Finding: f, Path: path, Line: line, Col: col})
		if !isNotice(f.Kind) {
			r.observer.Finding(f.Kind.Code())
		}
	}
	slices.SortStableFunc(res.Findings, func(a, b Located) int {
		return cmp.Or(cmp.Compare(a.Line, b.Line), cmp.Compare(a.Col, b.Col))
	})
	return res, nil
}

func (r *Runner) jobs() int {
	if r.opts.Jobs > 0 {
		return r.opts.Jobs
	}
	return runtime.NumCPU()
}

// Findings returns every file finding of the run, ordered by path and position.
func (res *Result) Findings() []Located {
	var out []Located
	for _, fr := range res.Files {
		out = append(out, fr.Findings...)
	}
	slices.SortStableFunc(out, func(a, b Located) int {
		return cmp.Or(strings.Compare(a.Path, b.Path), cmp.Compare(a.Line, b.Line), cmp.Compare(a.Col, b.Col))
	})
	return out
}

// noticeFor maps a resolver error to the notice recorded on the run state.
func noticeFor(err error) sniff.ResolverNotice {
	switch {
	case err == nil:
		return sniff.ResolverNone
	case errors.Is(err, release.ErrAuthInvalid):
		return sniff.ResolverAuthInvalid
	case errors.Is(err, release.ErrRateLimited):
		return sniff.ResolverRateLimited
	}
	return sniff.ResolverNone
}

func isNotice(kind sniff.FindingKind) bool {
	return kind == sniff.AuthTokenInvalid || kind == sniff.RateLimitReached
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

type nopObserver struct{}

func (nopObserver) FileScanned()    {}
func (nopObserver) VendorDetected() {}
func (nopObserver) Finding(string)  {}
