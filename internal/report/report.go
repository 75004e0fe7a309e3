// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/themecheck/tgmpalint/internal/scan"
	"github.com/themecheck/tgmpalint/internal/sniff"
)

type (
	// Diagnostic is one interpolated finding.
	Diagnostic struct {
		// Path is empty for run-wide notices.
		Path     string         `json:"path,omitempty" yaml:"path,omitempty"`
		Line     int            `json:"line,omitempty" yaml:"line,omitempty"`
		Col      int            `json:"column,omitempty" yaml:"column,omitempty"`
		Severity sniff.Severity `json:"severity" yaml:"severity"`
		Code     string         `json:"code" yaml:"code"`
		Message  string         `json:"message" yaml:"message"`
	}

	// Summary counts the outcome of a run.
	Summary struct {
		FilesScanned int `json:"files_scanned" yaml:"files_scanned"`
		FilesSkipped int `json:"files_skipped" yaml:"files_skipped"`
		VendorFiles  int `json:"vendor_files" yaml:"vendor_files"`
		Errors       int `json:"errors" yaml:"errors"`
		Warnings     int `json:"warnings" yaml:"warnings"`
		// Suppressed counts findings matched by the baseline.
		Suppressed int `json:"suppressed" yaml:"suppressed"`
	}

	// Report is the rendered outcome of one run.
	Report struct {
		RunID       string       `json:"run_id" yaml:"run_id"`
		GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
		Latest      string       `json:"latest_version" yaml:"latest_version"`
		Resolution  string       `json:"resolution" yaml:"resolution"`
		Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
		Summary     Summary      `json:"summary" yaml:"summary"`
	}

	// Suppressor decides whether a file finding is accepted by a baseline.
	Suppressor interface {
		Suppressed(path, code string) bool
	}
)

// Build creates the report of a run. Notices come first, followed by file
// findings in path and position order. Findings accepted by sup are counted
// but not listed; a nil sup suppresses nothing.
func Build(res *scan.Result, sup Suppressor) *Report {
	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Latest:      res.Resolution.Latest,
		Resolution:  string(res.Resolution.Outcome),
		Diagnostics: []Diagnostic{},
		Summary: Summary{
			FilesScanned: res.Stats.FilesScanned,
			FilesSkipped: res.Stats.FilesSkipped,
			VendorFiles:  res.Stats.VendorFiles,
		},
	}

	for _, n := range res.Notices {
		r.add(Diagnostic{
			Severity: n.Kind.Severity(),
			Code:     n.Kind.Code(),
			Message:  Interpolate(n),
		})
	}
	for _, f := range res.Findings() {
		code := f.Kind.Code()
		if sup != nil && sup.Suppressed(filepath.ToSlash(f.Path), code) {
			r.Summary.Suppressed++
			continue
		}
		r.add(Diagnostic{
			Path:     f.Path,
			Line:     f.Line,
			Col:      f.Col,
			Severity: f.Kind.Severity(),
			Code:     code,
			Message:  Interpolate(f.Finding),
		})
	}
	return r
}

func (r *Report) add(d Diagnostic) {
	switch d.Severity {
	case sniff.SeverityError:
		r.Summary.Errors++
	case sniff.SeverityWarning:
		r.Summary.Warnings++
	}
	r.Diagnostics = append(r.Diagnostics, d)
}

// ExitCode returns 1 when the report holds an error, or a warning in strict
// mode, and 0 otherwise.
func (r *Report) ExitCode(strict bool) int {
	if r.Summary.Errors > 0 || (strict && r.Summary.Warnings > 0) {
		return 1
	}
	return 0
}

// Interpolate fills the message template of f with its arguments.
func Interpolate(f sniff.Finding) string {
	if len(f.Args) == 0 {
		return f.Message
	}
	args := make([]any, len(f.Args))
	for i, a := range f.Args {
		args[i] = a
	}
	return fmt.Sprintf(f.Message, args...)
}
