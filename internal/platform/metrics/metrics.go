// Package metrics keeps per-run prometheus counters for the batch predictor
package metrics

import (
	"context"
	"time"

	perr "crimecast/internal/platform/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Job is the pushgateway job name
const Job = "crimecast_predict"

// Run holds the counters of one batch run on a private registry
type Run struct {
	reg *prometheus.Registry

	Processed prometheus.Counter
	Skipped   prometheus.Counter
	Failed    prometheus.Counter
	Rows      *prometheus.CounterVec
	DimRows   *prometheus.CounterVec
	Duration  prometheus.Histogram
}

// New creates and registers the run metrics
func New() *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Run{
		reg: reg,
		Processed: f.NewCounter(prometheus.CounterOpts{
			Name: "crimecast_artifacts_processed_total",
			Help: "Artifacts predicted and exported",
		}),
		Skipped: f.NewCounter(prometheus.CounterOpts{
			Name: "crimecast_artifacts_skipped_total",
			Help: "Artifacts skipped for a missing district id",
		}),
		Failed: f.NewCounter(prometheus.CounterOpts{
			Name: "crimecast_artifacts_failed_total",
			Help: "Artifacts that aborted the run",
		}),
		Rows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crimecast_prediction_rows_exported_total",
				Help: "Prediction rows appended per destination table",
			},
			[]string{"table"},
		),
		DimRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crimecast_dimension_rows_inserted_total",
				Help: "Dimension rows inserted per dimension",
			},
			[]string{"dim"},
		),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "crimecast_run_duration_seconds",
			Help:    "Duration of a full batch run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

// Registry exposes the registry for gathering
func (r *Run) Registry() *prometheus.Registry { return r.reg }

// ArtifactProcessed implements domain.Recorder
func (r *Run) ArtifactProcessed() { r.Processed.Inc() }

// ArtifactSkipped implements domain.Recorder
func (r *Run) ArtifactSkipped() { r.Skipped.Inc() }

// ArtifactFailed implements domain.Recorder
func (r *Run) ArtifactFailed() { r.Failed.Inc() }

// RowsExported implements domain.Recorder
func (r *Run) RowsExported(table string, n int) { r.Rows.WithLabelValues(table).Add(float64(n)) }

// DimRowsInserted implements domain.Recorder
func (r *Run) DimRowsInserted(dim string, n int) { r.DimRows.WithLabelValues(dim).Add(float64(n)) }

// Observe records the run duration since start
func (r *Run) Observe(start time.Time) { r.Duration.Observe(time.Since(start).Seconds()) }

// Push sends the registry to a pushgateway grouped by run id; an empty url is a no-op
func (r *Run) Push(ctx context.Context, url, runID string) error {
	if url == "" {
		return nil
	}
	p := push.New(url, Job).Gatherer(r.reg)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	if err := p.PushContext(ctx); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "push metrics to %s", url)
	}
	return nil
}
