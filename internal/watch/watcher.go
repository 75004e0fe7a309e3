// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs scans when files under the scan roots change.
//
// Directory roots are watched recursively; file roots are watched through
// their parent directory. Events are filtered with the same include and
// exclude globs as discovery and coalesced over a debounce window, so the
// callback fires once with every file that changed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period before a re-scan. Editors often write a
// temp file and rename it; both events land in one window.
const defaultDebounce = 300 * time.Millisecond

// defaultIgnores are always excluded, on top of the scan excludes.
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid watch configuration")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the paths given to the scan. Directories are watched
		// recursively. Files are watched individually.
		Roots []string

		// Include lists doublestar patterns, relative to a directory root,
		// for files whose changes trigger a re-scan. Empty matches all files.
		Include []string

		// Exclude lists doublestar patterns for paths that never trigger a
		// re-scan. They are merged with the built-in ignores.
		Exclude []string

		// Debounce is the quiet period after the last event. Zero or negative
		// values fall back to defaultDebounce.
		Debounce time.Duration

		// OnChange is called once per debounce window with the sorted list of
		// changed files. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives watcher diagnostics. nil discards them.
		Logger *log.Logger
	}

	// InvalidConfigError lists every problem found by Config.Validate.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Watcher monitors the scan roots. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []root
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		started  atomic.Bool
	}

	// root is one watched scan root. file is set for file roots, and dir is
	// then the parent directory.
	root struct {
		dir  string
		file string
	}
)

// Error implements error.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: %d field error(s): %v", ErrInvalidConfig, len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is.
func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks roots and patterns, reporting every problem at once.
func (c Config) Validate() error {
	var errs []error
	if len(c.Roots) == 0 {
		errs = append(errs, errors.New("no roots to watch"))
	}
	for _, r := range c.Roots {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, errors.New("empty root path"))
		}
	}
	errs = append(errs, patternErrors(c.Include, "include")...)
	errs = append(errs, patternErrors(c.Exclude, "exclude")...)
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// New validates cfg, resolves the roots and registers every non-excluded
// directory with fsnotify.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  slices.Concat(defaultIgnores, cfg.Exclude),
		logger:   logger,
		debounce: debounce,
	}

	for _, r := range cfg.Roots {
		if err := w.addRoot(r); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				logger.Warn("close watcher after init failure", "err", closeErr)
			}
			return nil, err
		}
	}
	return w, nil
}

// Run blocks until ctx is canceled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after cancellation via time.AfterFunc. A scan still in
	// progress defers the pending set to the next window.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("scan still running, postponing re-scan")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.logger.Info("files changed, re-scanning", "count", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("re-scan failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.relevant(evt.Name) {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) addRoot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: resolve %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	if !info.IsDir() {
		r := root{dir: filepath.Dir(abs), file: abs}
		w.roots = append(w.roots, r)
		if err := w.fsw.Add(r.dir); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", r.dir, err)
		}
		return nil
	}

	w.roots = append(w.roots, root{dir: abs})
	walkErr := filepath.WalkDir(abs, func(p string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "err", walkDirErr)
			return nil //nolint:nilerr // inaccessible paths are not watched
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(abs, p); relErr == nil && rel != "." && w.ignoredDir(rel) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(p); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %q: %w", abs, walkErr)
	}
	return nil
}

// maybeAddDir extends recursive watches to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	for _, r := range w.roots {
		if r.file != "" {
			continue
		}
		rel, ok := within(r.dir, path)
		if !ok || w.ignoredDir(rel) {
			continue
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Warn("add new directory", "path", path, "err", addErr)
		}
		return
	}
}

// relevant reports whether a change to path should trigger a re-scan.
func (w *Watcher) relevant(path string) bool {
	for _, r := range w.roots {
		if r.file != "" {
			if path == r.file {
				return true
			}
			continue
		}
		rel, ok := within(r.dir, path)
		if !ok || matchAny(w.ignores, rel) {
			continue
		}
		if len(w.cfg.Include) == 0 || matchAny(w.cfg.Include, rel) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignoredDir(rel string) bool {
	return matchAny(w.ignores, rel) || matchAny(w.ignores, rel+"/")
}

// within returns path relative to dir when path lies below it.
func within(dir, path string) (string, bool) {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func patternErrors(patterns []string, label string) []error {
	var errs []error
	for _, pat := range patterns {
		if pat == "" || !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("invalid %s pattern %q", label, pat))
		}
	}
	return errs
}
