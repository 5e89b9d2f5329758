// Package batch implements BatchTranscriptionRunner, composing
// pipeline.Workflow across many files with bounded parallelism and
// continue-on-error semantics.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vociferous/vociferous/internal/audio"
	"github.com/vociferous/vociferous/internal/config"
	"github.com/vociferous/vociferous/internal/engine"
	"github.com/vociferous/vociferous/internal/metrics"
	"github.com/vociferous/vociferous/internal/pipeline"
	"github.com/vociferous/vociferous/internal/progress"
	"github.com/vociferous/vociferous/internal/refine"
)

// EnsureDaemonRunning is the narrow capability Runner needs from a
// daemon.Manager: a plain function rather than an interface, so
// internal/batch never imports internal/daemon. internal/app wires this to
// (*daemon.Manager).EnsureRunning.
type EnsureDaemonRunning func(ctx context.Context, autoStart bool) (bool, error)

// Result is one file's outcome from a Runner pass.
type Result struct {
	SourceFile     string
	Success        bool
	TranscriptText string
	OutputPath     string
	Error          string
	DurationS      float64
	AudioDurationS float64
}

// Runner runs transcribe_file_workflow over Files with a bounded worker
// pool. Workers share no mutable state; contention is only on the shared
// engine.Worker (serialized by the daemon, if in use) and on OutputDir file
// creation.
type Runner struct {
	Files               []string
	OutputDir           string
	Parallel            int
	ContinueOnError     bool
	Worker              *engine.Worker
	Refiner             refine.Refiner
	EngineConfig        config.EngineConfig
	SegmentationProfile config.SegmentationProfile
	ArtifactConfig      config.ArtifactConfig
	TranscriptConfig    config.TranscriptConfig
	PreprocessingConfig config.PreprocessingConfig
	RefineConfig        config.RefineConfig
	DaemonMode          config.DaemonMode
	EnsureDaemon        EnsureDaemonRunning
	Logger              *slog.Logger
}

// Run executes the batch. progress, when non-nil, is advanced by one step
// per completed file regardless of success/failure.
func (r *Runner) Run(ctx context.Context, tracker progress.Tracker) ([]Result, error) {
	if tracker == nil {
		tracker = progress.Silent{}
	}
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	if r.DaemonMode == config.DaemonModeAuto || r.DaemonMode == config.DaemonModeAlways {
		if r.EnsureDaemon != nil {
			running, err := r.EnsureDaemon(ctx, r.DaemonMode == config.DaemonModeAlways)
			if err != nil || !running {
				if r.Logger != nil {
					r.Logger.Warn("warm daemon unavailable, falling back to local engine", "error", err)
				}
			}
		}
	}

	parallel := r.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	taskID := tracker.AddStep("batch transcription", float64(len(r.Files)))

	results := make([]Result, len(r.Files))
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	var stopMu sync.Mutex
	stopped := false

	for i, file := range r.Files {
		stopMu.Lock()
		halt := stopped
		stopMu.Unlock()
		if halt {
			results[i] = Result{SourceFile: file, Success: false, Error: "batch stopped after earlier failure"}
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			res := r.runOne(ctx, path)
			results[idx] = res
			tracker.Advance(taskID, 1)

			if !res.Success && !r.ContinueOnError {
				stopMu.Lock()
				stopped = true
				stopMu.Unlock()
			}
		}(i, file)
	}
	wg.Wait()
	tracker.Complete(taskID)

	return results, nil
}

func (r *Runner) runOne(ctx context.Context, path string) Result {
	start := time.Now()
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outputPath := filepath.Join(r.OutputDir, stem+"_transcript.txt")

	cfg := config.Config{
		Engine:        r.EngineConfig,
		Segmentation:  r.SegmentationProfile,
		Preprocessing: r.PreprocessingConfig,
		Artifact:      r.ArtifactConfig,
		Transcript:    r.TranscriptConfig,
		Refine:        r.RefineConfig,
	}

	result, err := pipeline.Workflow(ctx, audio.NewFileSource(path), pipeline.Options{
		Config:  cfg,
		Worker:  r.Worker,
		Refiner: r.Refiner,
	}, r.Logger)
	if err != nil {
		metrics.BatchFilesTotal.WithLabelValues("failure").Inc()
		metrics.BatchFileDuration.Observe(time.Since(start).Seconds())
		return Result{SourceFile: path, Success: false, Error: err.Error(), DurationS: time.Since(start).Seconds()}
	}

	if writeErr := os.WriteFile(outputPath, []byte(result.Text), 0o644); writeErr != nil {
		metrics.BatchFilesTotal.WithLabelValues("failure").Inc()
		metrics.BatchFileDuration.Observe(time.Since(start).Seconds())
		return Result{SourceFile: path, Success: false, Error: writeErr.Error(), DurationS: time.Since(start).Seconds()}
	}

	elapsed := time.Since(start)
	metrics.BatchFilesTotal.WithLabelValues("success").Inc()
	metrics.BatchFileDuration.Observe(elapsed.Seconds())
	return Result{
		SourceFile:     path,
		Success:        true,
		TranscriptText: result.Text,
		OutputPath:     outputPath,
		DurationS:      elapsed.Seconds(),
		AudioDurationS: result.AudioDurationS,
	}
}
