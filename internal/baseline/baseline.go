// SPDX-License-Identifier: MPL-2.0

// Package baseline stores accepted findings so that only new regressions are
// reported.
package baseline

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/themecheck/tgmpalint/internal/issue"
	"github.com/themecheck/tgmpalint/internal/scan"
	"github.com/themecheck/tgmpalint/internal/sniff"
)

// ErrInvalid is wrapped by Load when a baseline file cannot be parsed.
var ErrInvalid = errors.New("invalid baseline")

type (
	// Entry is one accepted finding.
	Entry struct {
		Path string `toml:"path"`
		Code string `toml:"code"`
	}

	// Baseline holds accepted findings keyed by slash-separated path and
	// finding code.
	Baseline struct {
		Entries []Entry `toml:"finding"`

		lookup map[Entry]bool
	}
)

// Load reads a baseline file. An empty path or a missing file yields an empty
// baseline that matches nothing.
func Load(path string) (*Baseline, error) {
	if path == "" {
		return New(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(nil), nil
		}
		return nil, issue.Wrap(err, "read baseline", path)
	}

	var b Baseline
	if err := toml.Unmarshal(data, &b); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load baseline").
			WithResource(path).
			WithSuggestion("Regenerate it with 'tgmpalint scan --update-baseline " + path + "'").
			WithSuggestion("Run 'tgmpalint explain baselineInvalid' for the file format").
			Wrap(fmt.Errorf("%w: %w", ErrInvalid, err)).
			BuildError()
	}
	for _, e := range b.Entries {
		if _, ok := sniff.KindByCode(e.Code); !ok || e.Path == "" {
			return nil, issue.NewErrorContext().
				WithOperation("load baseline").
				WithResource(path).
				WithSuggestion("Each [[finding]] needs a path and a known code").
				Wrap(fmt.Errorf("%w: entry %q/%q", ErrInvalid, e.Path, e.Code)).
				BuildError()
		}
	}
	return New(b.Entries), nil
}

// New creates a baseline from entries.
func New(entries []Entry) *Baseline {
	b := &Baseline{lookup: make(map[Entry]bool, len(entries))}
	for _, e := range entries {
		e.Path = filepath.ToSlash(e.Path)
		if b.lookup[e] {
			continue
		}
		b.lookup[e] = true
		b.Entries = append(b.Entries, e)
	}
	sortEntries(b.Entries)
	return b
}

// FromResult collects the file findings of a run. Run-wide notices are never
// baselined.
func FromResult(res *scan.Result) *Baseline {
	var entries []Entry
	for _, f := range res.Findings() {
		entries = append(entries, Entry{Path: f.Path, Code: f.Kind.Code()})
	}
	return New(entries)
}

// Suppressed reports whether the finding is accepted by the baseline.
func (b *Baseline) Suppressed(path, code string) bool {
	if b == nil {
		return false
	}
	return b.lookup[Entry{Path: filepath.ToSlash(path), Code: code}]
}

// Len returns the number of entries.
func (b *Baseline) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Entries)
}

// Write saves the baseline to path.
func (b *Baseline) Write(path string) error {
	body, err := toml.Marshal(b)
	if err != nil {
		return issue.Wrap(err, "encode baseline", path)
	}

	var buf bytes.Buffer
	buf.WriteString("# tgmpalint baseline: accepted findings\n")
	fmt.Fprintf(&buf, "# Generated: %s\n", time.Now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&buf, "# Total: %d findings\n\n", len(b.Entries))
	buf.Write(body)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return issue.NewErrorContext().
			WithOperation("write baseline").
			WithResource(path).
			WithSuggestion("Check that the directory of --update-baseline exists and is writable").
			Wrap(err).
			BuildError()
	}
	return nil
}

func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Code, b.Code))
	})
}
