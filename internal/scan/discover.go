// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/themecheck/tgmpalint/internal/issue"
)

// ErrPathNotFound is wrapped by discovery errors for missing scan roots.
var ErrPathNotFound = errors.New("scan path not found")

type (
	// Filter selects the files a run scans.
	Filter struct {
		// Include lists doublestar patterns, relative to the scan root, that a
		// file must match. Files named directly on the command line bypass it.
		Include []string
		// Exclude lists doublestar patterns that prune files and directories.
		Exclude []string
		// MaxFileSize skips larger files. Zero disables the limit.
		MaxFileSize int64
	}

	// Candidate is a file selected for scanning.
	Candidate struct {
		// Path is the file path as reported to the user.
		Path string
		Size int64
	}

	// Skipped is a file left out of a run.
	Skipped struct {
		Path   string
		Reason string
	}
)

// Validate checks that every pattern is a valid doublestar glob.
func (f Filter) Validate() error {
	for _, pat := range slices.Concat(f.Include, f.Exclude) {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("invalid pattern %q", pat)
		}
	}
	return nil
}

// Discover walks roots and returns the files to scan in lexical order, each
// at most once, plus the files skipped because of their size.
func Discover(ctx context.Context, roots []string, f Filter, logger *log.Logger) ([]Candidate, []Skipped, error) {
	if logger == nil {
		logger = discardLogger()
	}
	if err := f.Validate(); err != nil {
		return nil, nil, err
	}

	d := &discoverer{filter: f, logger: logger, seen: make(map[string]bool)}
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if err := d.walkRoot(ctx, root); err != nil {
			return nil, nil, err
		}
	}

	slices.SortFunc(d.files, func(a, b Candidate) int {
		return strings.Compare(a.Path, b.Path)
	})
	return d.files, d.skipped, nil
}

type discoverer struct {
	filter  Filter
	logger  *log.Logger
	seen    map[string]bool
	files   []Candidate
	skipped []Skipped
}

func (d *discoverer) walkRoot(ctx context.Context, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrPathNotFound, root)
		}
		return issue.NewErrorContext().
			WithOperation("read scan path").
			WithResource(root).
			WithSuggestion("Check the spelling of the path").
			WithSuggestion("Run 'tgmpalint explain pathNotFound' for help").
			Wrap(err).
			BuildError()
	}

	if !info.IsDir() {
		d.add(filepath.Clean(root), info.Size())
		return nil
	}

	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			d.logger.Warn("skipping unreadable path", "path", path, "err", walkErr)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil //nolint:nilerr // the root itself is never filtered
		}

		if entry.IsDir() {
			if d.excluded(rel) || d.excluded(rel+"/") {
				d.logger.Debug("excluded directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || d.excluded(rel) || !d.included(rel) {
			return nil
		}

		fi, err := entry.Info()
		if err != nil {
			d.logger.Warn("skipping unreadable file", "path", path, "err", err)
			return nil
		}
		d.add(path, fi.Size())
		return nil
	})
}

func (d *discoverer) add(path string, size int64) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	if d.seen[key] {
		return
	}
	d.seen[key] = true

	if d.filter.MaxFileSize > 0 && size > d.filter.MaxFileSize {
		d.logger.Debug("skipping large file", "path", path, "size", size, "max", d.filter.MaxFileSize)
		d.skipped = append(d.skipped, Skipped{
			Path:   path,
			Reason: fmt.Sprintf("file size %d exceeds limit %d", size, d.filter.MaxFileSize),
		})
		return
	}
	d.files = append(d.files, Candidate{Path: path, Size: size})
}

func (d *discoverer) excluded(rel string) bool {
	return matchAny(d.filter.Exclude, rel)
}

func (d *discoverer) included(rel string) bool {
	return matchAny(d.filter.Include, rel)
}

// matchAny reports whether rel matches any pattern. Paths are normalised to
// forward slashes for consistent glob matching.
func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}
