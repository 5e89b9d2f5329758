// Package pipeline implements the per-file transcription orchestrator: it
// wires audio resolution, decode, VAD, condensing, engine transcription,
// offset-stitching, and optional refinement into a single call.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vociferous/vociferous/internal/audio"
	"github.com/vociferous/vociferous/internal/config"
	"github.com/vociferous/vociferous/internal/domainerr"
	"github.com/vociferous/vociferous/internal/engine"
	"github.com/vociferous/vociferous/internal/metrics"
	"github.com/vociferous/vociferous/internal/progress"
	"github.com/vociferous/vociferous/internal/refine"
	"github.com/vociferous/vociferous/internal/transcript"
)

// stageTimer returns a func that observes elapsed wall time under the
// given stage label when called, for metrics.PipelineStageDuration.
func stageTimer(stage string) func() {
	start := time.Now()
	return func() { metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds()) }
}

// Segment is the final, stitched, display-ready form of a recognized span.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Result is everything a caller needs after running Workflow: the assembled
// transcript, the per-segment detail, which engine produced it, and any
// non-fatal warnings (e.g. a failed refinement pass).
type Result struct {
	Text           string
	Segments       []Segment
	Metadata       engine.Metadata
	UsedDaemon     bool
	Warnings       []string
	AudioDurationS float64
	Refined        bool
}

// Options configures one Workflow run. WorkDir, when empty, is created by
// the workflow under os.TempDir and owned (and removed on cleanup) by it;
// when set explicitly, it is assumed to be caller-owned and never removed.
type Options struct {
	Config   config.Config
	Worker   *engine.Worker
	Refiner  refine.Refiner
	WorkDir  string
	Progress progress.Tracker
}

// Workflow runs the end-to-end pipeline for a single audio source and
// returns the assembled transcript.
func Workflow(ctx context.Context, source audio.Source, opts Options, logger *slog.Logger) (Result, error) {
	tracker := opts.Progress
	if tracker == nil {
		tracker = progress.Silent{}
	}
	sp := progress.NewTranscriptionProgress(tracker)
	sp.Open()
	defer sp.Close()

	workDir := opts.WorkDir
	ownsWorkDir := workDir == ""
	if ownsWorkDir {
		dir, err := os.MkdirTemp("", "vociferous-workflow-*")
		if err != nil {
			return Result{}, fmt.Errorf("create work dir: %w", err)
		}
		workDir = dir
	}

	var intermediates []string
	succeeded := false
	defer func() {
		cleanupPolicy := opts.Config.Artifact.CleanupIntermediates && (succeeded || !opts.Config.Artifact.KeepOnError)
		if cleanupPolicy {
			for _, p := range intermediates {
				_ = os.Remove(p)
			}
		}
		if ownsWorkDir && (cleanupPolicy || succeeded) {
			_ = os.RemoveAll(workDir)
		}
	}()

	sp.StartDecode()
	stopDecode := stageTimer("decode")
	inputPath, err := source.ResolveToPath(ctx, workDir)
	if err != nil {
		return Result{}, fmt.Errorf("resolve audio source: %w", err)
	}

	decoder := audio.NewDecoder()
	if _, err := decoder.ValidateAudioFile(ctx, inputPath); err != nil {
		return Result{}, err
	}

	decodedPath := filepath.Join(workDir, "decoded.wav")
	decodedPath, err = decoder.DecodeToWav(ctx, inputPath, decodedPath)
	if err != nil {
		return Result{}, err
	}
	intermediates = append(intermediates, decodedPath)

	preprocessedPath := decodedPath
	if audio.NeedsPreprocessing(opts.Config.Preprocessing) {
		pre := audio.NewPreprocessor()
		preprocessedPath = filepath.Join(workDir, "preprocessed.wav")
		preprocessedPath, err = pre.Preprocess(ctx, decodedPath, preprocessedPath, opts.Config.Preprocessing)
		if err != nil {
			return Result{}, err
		}
		intermediates = append(intermediates, preprocessedPath)
	}
	stopDecode()
	sp.CompleteDecode()

	sp.StartVAD()
	stopVAD := stageTimer("vad")
	detector := audio.NewDetector(filepath.Join(opts.Config.Engine.ModelCacheDir, "silero_vad.onnx"))
	spans, err := detector.Detect(ctx, preprocessedPath, opts.Config.Segmentation)
	if err != nil {
		return Result{}, err
	}
	stopVAD()
	sp.CompleteVAD(len(spans))

	sp.StartCondense()
	stopCondense := stageTimer("condense")
	condenser := audio.NewCondenser()
	chunkPaths, err := condenser.Condense(ctx, spans, preprocessedPath, opts.Config.Segmentation, workDir, "")
	if err != nil {
		return Result{}, err
	}
	if len(chunkPaths) == 0 {
		return Result{}, domainerr.NewNoSpeech()
	}
	intermediates = append(intermediates, chunkPaths...)
	stopCondense()
	sp.CompleteCondense(len(chunkPaths))

	chunkDurations := make([]float64, len(chunkPaths))
	for i, p := range chunkPaths {
		info, err := audio.ReadWavInfo(p)
		if err != nil {
			return Result{}, domainerr.NewTranscription("failed to read condensed chunk duration", p, err)
		}
		chunkDurations[i] = info.DurationS
	}

	if opts.Worker == nil {
		return Result{}, fmt.Errorf("pipeline: no engine worker configured")
	}

	sp.StartTranscribe(len(chunkPaths))
	stopTranscribe := stageTimer("transcribe")
	chunks, err := opts.Worker.TranscribeBatch(ctx, chunkPaths)
	if err != nil {
		return Result{}, domainerr.NewTranscription("transcription failed", inputPath, err)
	}
	stopTranscribe()
	sp.AdvanceTranscribe(float64(len(chunkPaths)))
	sp.CompleteTranscribe()

	stitched := StitchOffsets(chunks, chunkDurations)

	var warnings []string

	refiner := opts.Refiner
	if opts.Config.Refine.Enable && refiner == nil {
		refiner = refine.NewEngineRefiner(opts.Worker, opts.Config.Refine.Mode)
	}

	finalTexts := make([]string, len(stitched))
	for i, s := range stitched {
		finalTexts[i] = s.RawText
	}
	rawText := transcript.Assemble(finalTexts, transcript.Options{
		TrailingSpace:       opts.Config.Transcript.TrailingSpace,
		CapitalizeSentences: opts.Config.Transcript.CapitalizeSentences,
	})

	finalText := rawText
	didRefine := false
	if opts.Config.Refine.Enable && refiner != nil && rawText != "" {
		sp.StartRefine()
		stopRefine := stageTimer("refine")
		refinedText, refineErr := refiner.Refine(ctx, rawText, opts.Config.Refine.Instructions)
		stopRefine()
		if refineErr != nil {
			warnings = append(warnings, fmt.Sprintf("refinement failed, falling back to raw transcript: %v", refineErr))
			if logger != nil {
				logger.Warn("refinement failed", "error", refineErr)
			}
		} else {
			finalText = refinedText
			didRefine = true
		}
		sp.CompleteRefine()
	}

	segments := make([]Segment, len(stitched))
	for i, s := range stitched {
		segments[i] = Segment{Start: s.Start, End: s.End, Text: s.Text()}
	}

	var audioDuration float64
	for _, d := range chunkDurations {
		audioDuration += d
	}

	succeeded = true
	result := Result{
		Text:           finalText,
		Segments:       segments,
		Metadata:       opts.Worker.Metadata(),
		UsedDaemon:     opts.Worker.UsedDaemon(),
		Warnings:       warnings,
		AudioDurationS: audioDuration,
		Refined:        didRefine,
	}
	return result, nil
}
