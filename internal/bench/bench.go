// Package bench measures real-time factor (RTF) for an engine profile
// against a sample audio file: RTF = processing_time_s / audio_duration_s,
// a lower number meaning the engine is faster than real time.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/vociferous/vociferous/internal/audio"
	"github.com/vociferous/vociferous/internal/engine"
)

// Result is one bench run's outcome.
type Result struct {
	Iterations    int
	AudioDurationS float64
	TotalElapsedS  float64
	MeanElapsedS   float64
	RTF            float64
	Metadata       engine.Metadata
}

// Run transcribes sourcePath with worker iterations times (discarding the
// text) and reports the mean real-time factor. The file is resolved and
// its duration measured once; only the transcription call is timed per
// iteration, keeping setup cost out of the measured loop.
func Run(ctx context.Context, worker *engine.Worker, sourcePath string, iterations int) (Result, error) {
	if iterations <= 0 {
		iterations = 1
	}

	info, err := audio.ReadWavInfo(sourcePath)
	if err != nil {
		return Result{}, fmt.Errorf("bench: read wav info: %w", err)
	}
	if info.DurationS <= 0 {
		return Result{}, fmt.Errorf("bench: %s has zero duration", sourcePath)
	}

	var total time.Duration
	for i := 0; i < iterations; i++ {
		start := time.Now()
		if _, err := worker.TranscribeBatch(ctx, []string{sourcePath}); err != nil {
			return Result{}, fmt.Errorf("bench: transcribe iteration %d: %w", i, err)
		}
		total += time.Since(start)
	}

	mean := total.Seconds() / float64(iterations)
	return Result{
		Iterations:     iterations,
		AudioDurationS: info.DurationS,
		TotalElapsedS:  total.Seconds(),
		MeanElapsedS:   mean,
		RTF:            mean / info.DurationS,
		Metadata:       worker.Metadata(),
	}, nil
}
