// Package metrics records run outcomes for node_exporter's textfile
// collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TextfileName is the file written into the collector directory.
const TextfileName = "k3stage.prom"

// Recorder holds the metrics of one run. A nil Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry
	node     string

	stageDuration *prometheus.GaugeVec
	stageResult   *prometheus.GaugeVec
	releases      *prometheus.GaugeVec
	lastRun       *prometheus.GaugeVec
}

// NewRecorder creates a recorder for node on its own registry.
func NewRecorder(node string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		node:     node,
		stageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "k3stage",
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Wall time of the last run of each stage",
			},
			[]string{"node", "stage"},
		),
		stageResult: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "k3stage",
				Subsystem: "stage",
				Name:      "result",
				Help:      "Outcome of the last run of each stage (1 for the active result)",
			},
			[]string{"node", "stage", "result"},
		),
		releases: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "k3stage",
				Subsystem: "platform",
				Name:      "release_installed",
				Help:      "Platform chart releases by outcome",
			},
			[]string{"release", "outcome"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "k3stage",
				Subsystem: "run",
				Name:      "last_timestamp_seconds",
				Help:      "Unix time the last run finished, by outcome",
			},
			[]string{"node", "outcome"},
		),
	}
	r.registry.MustRegister(r.stageDuration, r.stageResult, r.releases, r.lastRun)
	return r
}

// Stage outcomes.
const (
	ResultSucceeded = "succeeded"
	ResultSkipped   = "skipped"
	ResultResume    = "resume"
	ResultFailed    = "failed"
)

var stageResults = []string{ResultSucceeded, ResultSkipped, ResultResume, ResultFailed}

// RecordStage stores a stage's duration and outcome.
func (r *Recorder) RecordStage(stage, result string, duration time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(r.node, stage).Set(duration.Seconds())
	for _, res := range stageResults {
		v := 0.0
		if res == result {
			v = 1
		}
		r.stageResult.WithLabelValues(r.node, stage, res).Set(v)
	}
}

// RecordRelease stores a chart release outcome.
func (r *Recorder) RecordRelease(release, outcome string) {
	if r == nil {
		return
	}
	r.releases.WithLabelValues(release, outcome).Set(1)
}

// RecordRun stamps the end of a run.
func (r *Recorder) RecordRun(outcome string, at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.WithLabelValues(r.node, outcome).Set(float64(at.Unix()))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the metrics into dir atomically. An empty dir is a
// no-op.
func (r *Recorder) WriteTextfile(dir string) error {
	if r == nil || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	path := filepath.Join(dir, TextfileName)
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
