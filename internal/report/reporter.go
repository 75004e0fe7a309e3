// SPDX-License-Identifier: MPL-2.0

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/themecheck/tgmpalint/internal/issue"
	"github.com/themecheck/tgmpalint/internal/sniff"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned by New for unsupported formats.
var ErrUnknownFormat = errors.New("unknown report format")

type (
	// Reporter writes a Report.
	Reporter interface {
		Write(r *Report) error
	}

	textReporter struct {
		w      io.Writer
		styles textStyles
	}

	textStyles struct {
		path, pos, err, warn, code, muted lipgloss.Style
	}

	jsonReporter struct {
		w io.Writer
	}

	yamlReporter struct {
		w io.Writer
	}
)

// New returns the reporter for format writing to w.
func New(format string, w io.Writer) (Reporter, error) {
	switch format {
	case FormatText, "":
		return newTextReporter(w), nil
	case FormatJSON:
		return &jsonReporter{w: w}, nil
	case FormatYAML:
		return &yamlReporter{w: w}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// newTextReporter styles output with a renderer bound to w, so color is only
// emitted when w is a terminal.
func newTextReporter(w io.Writer) *textReporter {
	re := lipgloss.NewRenderer(w)
	return &textReporter{
		w: w,
		styles: textStyles{
			path:  re.NewStyle().Bold(true),
			pos:   re.NewStyle().Foreground(lipgloss.Color("#6B7280")),
			err:   re.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
			warn:  re.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
			code:  re.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
			muted: re.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		},
	}
}

// Write prints one "path:line:col severity code message" line per diagnostic
// and a closing summary.
func (t *textReporter) Write(r *Report) error {
	var sb strings.Builder
	for _, d := range r.Diagnostics {
		loc := "tgmpalint"
		if d.Path != "" {
			loc = t.styles.path.Render(d.Path) +
				t.styles.pos.Render(":"+strconv.Itoa(d.Line)+":"+strconv.Itoa(d.Col))
		}
		sev := t.styles.warn.Render(string(d.Severity))
		if d.Severity == sniff.SeverityError {
			sev = t.styles.err.Render(string(d.Severity))
		}
		fmt.Fprintf(&sb, "%s %s %s %s\n", loc, sev, t.styles.code.Render(d.Code), d.Message)
	}

	s := r.Summary
	summary := fmt.Sprintf("%d files scanned, %d TGMPA copies, %d errors, %d warnings",
		s.FilesScanned, s.VendorFiles, s.Errors, s.Warnings)
	if s.Suppressed > 0 {
		summary += fmt.Sprintf(", %d suppressed by baseline", s.Suppressed)
	}
	if r.Latest != "" {
		summary += fmt.Sprintf(" (latest TGMPA %s, %s)", r.Latest, r.Resolution)
	}
	sb.WriteString(t.styles.muted.Render(summary))
	sb.WriteString("\n")

	_, err := io.WriteString(t.w, sb.String())
	return issue.Wrap(err, "write report", FormatText)
}

func (j *jsonReporter) Write(r *Report) error {
	encoder := json.NewEncoder(j.w)
	encoder.SetIndent("", "  ")
	return issue.Wrap(encoder.Encode(r), "write report", FormatJSON)
}

func (y *yamlReporter) Write(r *Report) error {
	encoder := yaml.NewEncoder(y.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(r); err != nil {
		return issue.Wrap(err, "write report", FormatYAML)
	}
	return issue.Wrap(encoder.Close(), "write report", FormatYAML)
}
