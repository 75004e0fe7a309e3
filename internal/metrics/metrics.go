// SPDX-License-Identifier: MPL-2.0

// Package metrics records scan counters on a private Prometheus registry and
// writes them in the node_exporter textfile collector format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/themecheck/tgmpalint/internal/issue"
	"github.com/themecheck/tgmpalint/internal/scan"
	"github.com/themecheck/tgmpalint/internal/sniff"
)

const namespace = "tgmpalint"

// Recorder collects run metrics. It implements scan.Observer and is safe for
// concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	filesScanned prometheus.Counter
	vendorFiles  prometheus.Counter
	findings     *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	runs         prometheus.Counter
	runDuration  prometheus.Histogram
}

var _ scan.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with its own registry. Finding counters are
// pre-initialized for every known code so that zero values are exported.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		filesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_scanned_total",
			Help:      "PHP files read and tokenized.",
		}),
		vendorFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_files_total",
			Help:      "Files recognized as a bundled copy of TGM Plugin Activation.",
		}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings reported, by code.",
		}, []string{"code"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "GitHub latest-version lookups, by outcome. Cached answers are not counted.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed scan runs.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a scan run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	r.registry.MustRegister(r.filesScanned, r.vendorFiles, r.findings, r.resolutions, r.runs, r.runDuration)
	for _, k := range sniff.Kinds() {
		r.findings.WithLabelValues(k.Code())
	}
	return r
}

// Registry returns the registry the counters live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// FileScanned implements scan.Observer.
func (r *Recorder) FileScanned() { r.filesScanned.Inc() }

// VendorDetected implements scan.Observer.
func (r *Recorder) VendorDetected() { r.vendorFiles.Inc() }

// Finding implements scan.Observer.
func (r *Recorder) Finding(code string) { r.findings.WithLabelValues(code).Inc() }

// Resolved records one GitHub lookup. Wire it with release.WithOnResolved.
func (r *Recorder) Resolved(outcome string) { r.resolutions.WithLabelValues(outcome).Inc() }

// RunCompleted records the end of a run.
func (r *Recorder) RunCompleted(d time.Duration) {
	r.runs.Inc()
	r.runDuration.Observe(d.Seconds())
}

// WriteTextfile atomically writes every metric to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return issue.NewErrorContext().
			WithOperation("write metrics").
			WithResource(path).
			WithSuggestion("Check that the directory of --metrics-file exists and is writable").
			Wrap(err).
			BuildError()
	}
	return nil
}
