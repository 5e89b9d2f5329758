// Package metrics exposes Prometheus instrumentation for the daemon and
// batch runner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DaemonRequestsTotal counts requests the warm daemon has served, by
	// endpoint and outcome.
	DaemonRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vociferous_daemon_requests_total",
		Help: "Warm-model daemon requests served, by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	// DaemonInferenceDuration measures model-touching request latency by
	// endpoint, excluding health/status which bypass the request queue.
	DaemonInferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vociferous_daemon_inference_duration_seconds",
		Help:    "Warm-model daemon inference latency by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"endpoint"})

	// DaemonModelLoaded reports whether the daemon's model is currently
	// resident, per the /health model_loaded field.
	DaemonModelLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vociferous_daemon_model_loaded",
		Help: "1 when the warm daemon's model is loaded, else 0",
	})

	// PipelineStageDuration measures per-stage wall time within a single
	// Workflow run: decode, vad, condense, transcribe, refine.
	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vociferous_pipeline_stage_duration_seconds",
		Help:    "transcribe_file_workflow per-stage latency",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	// BatchFilesTotal counts files a batch run has completed, by outcome.
	BatchFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vociferous_batch_files_total",
		Help: "Batch transcription files completed, by outcome",
	}, []string{"outcome"})

	// BatchFileDuration measures per-file wall time within a batch run.
	BatchFileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vociferous_batch_file_duration_seconds",
		Help:    "Batch transcription per-file wall time",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
	})
)
