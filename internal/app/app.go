// Package app wires the CLI surface to the core packages: audio, pipeline, batch, bench, daemon, sink, and refine.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vociferous/vociferous/internal/audio"
	"github.com/vociferous/vociferous/internal/batch"
	"github.com/vociferous/vociferous/internal/bench"
	"github.com/vociferous/vociferous/internal/cli"
	"github.com/vociferous/vociferous/internal/config"
	"github.com/vociferous/vociferous/internal/daemon"
	"github.com/vociferous/vociferous/internal/doctor"
	"github.com/vociferous/vociferous/internal/domainerr"
	"github.com/vociferous/vociferous/internal/engine"
	"github.com/vociferous/vociferous/internal/history"
	"github.com/vociferous/vociferous/internal/logging"
	"github.com/vociferous/vociferous/internal/pipeline"
	"github.com/vociferous/vociferous/internal/progress"
	"github.com/vociferous/vociferous/internal/refine"
	"github.com/vociferous/vociferous/internal/sink"
	"github.com/vociferous/vociferous/internal/version"
)

// Runner holds process-level dependencies used by command handlers.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Execute is the package entrypoint used by cmd/vociferous/main.go.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

// Execute parses CLI arguments, loads config/logging, and dispatches a command.
func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("vociferous"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("vociferous"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
	}

	registry := engine.Default()

	var dispatchErr error
	switch parsed.Command {
	case cli.CommandDecode:
		dispatchErr = r.cmdDecode(ctx, parsed.Args)
	case cli.CommandVAD:
		dispatchErr = r.cmdVAD(ctx, parsed.Args, cfgLoaded.Config)
	case cli.CommandCondense:
		dispatchErr = r.cmdCondense(ctx, parsed.Args, cfgLoaded.Config)
	case cli.CommandRecord:
		dispatchErr = r.cmdRecord(ctx, parsed.Args)
	case cli.CommandTranscribe:
		dispatchErr = r.cmdTranscribe(ctx, parsed.Args, cfgLoaded.Config, registry, logger, false)
	case cli.CommandTranscribeFull:
		dispatchErr = r.cmdTranscribe(ctx, parsed.Args, cfgLoaded.Config, registry, logger, true)
	case cli.CommandBatch:
		dispatchErr = r.cmdBatch(ctx, parsed.Args, cfgLoaded.Config, registry, logger)
	case cli.CommandBench:
		dispatchErr = r.cmdBench(ctx, parsed.Args, cfgLoaded.Config, registry)
	case cli.CommandRefine:
		dispatchErr = r.cmdRefine(ctx, parsed.Args, cfgLoaded.Config, registry)
	case cli.CommandDaemon:
		dispatchErr = r.cmdDaemon(ctx, parsed.Args, cfgLoaded.Config, registry, logger)
	case cli.CommandDoctor:
		dispatchErr = r.cmdDoctor(ctx, cfgLoaded.Config)
	default:
		fmt.Fprint(r.Stdout, cli.HelpText("vociferous"))
		return 0
	}

	if dispatchErr != nil {
		return r.reportError(dispatchErr, logger)
	}
	return 0
}

// reportError renders a failure for the terminal: message, bulleted
// context, numbered suggestions, and a kind-derived exit code.
func (r Runner) reportError(err error, logger *slog.Logger) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}

	var derr *domainerr.Error
	if errors.As(err, &derr) {
		fmt.Fprintf(r.Stderr, "error: %s\n", derr.Message)
		for k, v := range derr.Context {
			fmt.Fprintf(r.Stderr, "  - %s: %v\n", k, v)
		}
		for i, s := range derr.Suggestions {
			fmt.Fprintf(r.Stderr, "  %d. %s\n", i+1, s)
		}
		logger.Error("command failed", "kind", string(derr.Kind), "error", derr.Error())
		return exitCodeForKind(derr.Kind)
	}

	fmt.Fprintf(r.Stderr, "error: %v\n", err)
	logger.Error("command failed", "error", err.Error())
	return 1
}

func exitCodeForKind(kind domainerr.Kind) int {
	switch kind {
	case domainerr.KindConfiguration:
		return 2
	case domainerr.KindEngine, domainerr.KindDependency, domainerr.KindDaemonStart:
		return 3
	default:
		return 1
	}
}

// --- shared helpers ---

func engineProfile(cfg config.Config) engine.Profile {
	return engine.Profile{Kind: cfg.Engine.Kind, Config: cfg.Engine, Options: cfg.Transcription}
}

func daemonClient(cfg config.Config) *daemon.Client {
	pingTimeout := durationOrDefault(cfg.Daemon.PingTimeoutS, 2*time.Second)
	transcribeTimeout := durationOrDefault(cfg.Daemon.TranscribeTimeoutS, 120*time.Second)
	addr := cfg.Daemon.HTTPAddr
	if addr == "" {
		addr = "127.0.0.1:8765"
	}
	return daemon.NewClient(addr, pingTimeout, transcribeTimeout)
}

func daemonManager(cfg config.Config, logger *slog.Logger) *daemon.Manager {
	client := daemonClient(cfg)
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	manager := daemon.NewManager(client, self, []string{"daemon", "start", "--foreground"}, logger)
	if cfg.Daemon.NominalLoadTimeS > 0 {
		manager.NominalLoadTime = time.Duration(cfg.Daemon.NominalLoadTimeS * float64(time.Second))
	}
	return manager
}

func durationOrDefault(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}

// buildWorker assembles an engine.Worker honoring cfg.Daemon.Mode: "off"
// never attempts the daemon fast-path, "auto"/"always" do.
func buildWorker(cfg config.Config, registry *engine.Registry) *engine.Worker {
	useDaemon := cfg.Daemon.Mode == config.DaemonModeAuto || cfg.Daemon.Mode == config.DaemonModeAlways
	var frontend engine.DaemonFrontend
	if useDaemon {
		frontend = daemonClient(cfg)
	}
	return engine.NewWorker(engineProfile(cfg), registry, frontend, useDaemon, nil)
}

// ensureDaemonIfConfigured wires batch.EnsureDaemonRunning to a
// daemon.Manager closure without internal/batch importing internal/daemon.
func ensureDaemonIfConfigured(cfg config.Config, logger *slog.Logger) batch.EnsureDaemonRunning {
	if cfg.Daemon.Mode == config.DaemonModeOff {
		return nil
	}
	manager := daemonManager(cfg, logger)
	return func(ctx context.Context, autoStart bool) (bool, error) {
		return manager.EnsureRunning(ctx, autoStart, nil)
	}
}

func buildSink(cfg config.Config, outputPath string) (sink.Sink, error) {
	var sinks []sink.Sink
	sinks = append(sinks, &sink.Stdout{Out: os.Stdout})

	if outputPath != "" {
		sinks = append(sinks, &sink.File{Path: outputPath})
	}

	if len(cfg.ClipboardCmd.Argv) > 0 {
		sinks = append(sinks, &sink.Clipboard{Argv: cfg.ClipboardCmd.Argv})
	}

	if cfg.History.Backend != config.HistoryBackendNone && cfg.History.Backend != "" {
		store, err := history.Open(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		if store != nil {
			sinks = append(sinks, &sink.History{Store: store})
		}
	}

	// Refinement already happened inside pipeline.Workflow when
	// cfg.Refine.Enable is set, so sinks receive an already-refined
	// Result and must not refine again.
	return &sink.Composite{Sinks: sinks}, nil
}

func parseFlagSet(name string, args []string, setup func(fs *flag.FlagSet)) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	setup(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs, nil
}

// --- subcommands ---

func (r Runner) cmdDecode(ctx context.Context, args []string) error {
	var input, output string
	if _, err := parseFlagSet("decode", args, func(fs *flag.FlagSet) {
		fs.StringVar(&input, "input", "", "input audio file")
		fs.StringVar(&output, "output", "", "output wav path")
	}); err != nil {
		return err
	}
	if input == "" || output == "" {
		return domainerr.NewConfiguration("decode requires --input and --output")
	}

	decoder := audio.NewDecoder()
	outPath, err := decoder.DecodeToWav(ctx, input, output)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.Stdout, outPath)
	return nil
}

func (r Runner) cmdVAD(ctx context.Context, args []string, cfg config.Config) error {
	var input string
	if _, err := parseFlagSet("vad", args, func(fs *flag.FlagSet) {
		fs.StringVar(&input, "input", "", "input wav file")
	}); err != nil {
		return err
	}
	if input == "" {
		return domainerr.NewConfiguration("vad requires --input")
	}

	detector := audio.NewDetector(filepath.Join(cfg.Engine.ModelCacheDir, "silero_vad.onnx"))
	spans, err := detector.Detect(ctx, input, cfg.Segmentation)
	if err != nil {
		return err
	}
	for _, s := range spans {
		fmt.Fprintf(r.Stdout, "%.3f\t%.3f\n", s.Start, s.End)
	}
	return nil
}

func (r Runner) cmdCondense(ctx context.Context, args []string, cfg config.Config) error {
	var input, outputDir string
	if _, err := parseFlagSet("condense", args, func(fs *flag.FlagSet) {
		fs.StringVar(&input, "input", "", "input wav file")
		fs.StringVar(&outputDir, "output-dir", "", "directory for condensed chunks")
	}); err != nil {
		return err
	}
	if input == "" || outputDir == "" {
		return domainerr.NewConfiguration("condense requires --input and --output-dir")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	detector := audio.NewDetector(filepath.Join(cfg.Engine.ModelCacheDir, "silero_vad.onnx"))
	spans, err := detector.Detect(ctx, input, cfg.Segmentation)
	if err != nil {
		return err
	}

	condenser := audio.NewCondenser()
	chunks, err := condenser.Condense(ctx, spans, input, cfg.Segmentation, outputDir, "")
	if err != nil {
		return err
	}
	for _, c := range chunks {
		fmt.Fprintln(r.Stdout, c)
	}
	return nil
}

func (r Runner) cmdRecord(ctx context.Context, args []string) error {
	var deviceName, output string
	var seconds float64
	if _, err := parseFlagSet("record", args, func(fs *flag.FlagSet) {
		fs.StringVar(&deviceName, "device", "", "input device name (empty selects default)")
		fs.StringVar(&output, "output", "", "output wav path")
		fs.Float64Var(&seconds, "duration", 5, "recording duration in seconds")
	}); err != nil {
		return err
	}
	if output == "" {
		return domainerr.NewConfiguration("record requires --output")
	}

	selection, err := audio.SelectDevice(ctx, deviceName, "")
	if err != nil {
		return err
	}

	pcm, err := audio.RecordDuration(ctx, selection.Device, time.Duration(seconds*float64(time.Second)))
	if err != nil {
		return err
	}
	if err := audio.WriteMonoWav(output, 16000, pcm); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	fmt.Fprintln(r.Stdout, output)
	return nil
}

func (r Runner) cmdTranscribe(ctx context.Context, args []string, cfg config.Config, registry *engine.Registry, logger *slog.Logger, full bool) error {
	var input, output, language string
	var refineEnabled bool
	if _, err := parseFlagSet("transcribe", args, func(fs *flag.FlagSet) {
		fs.StringVar(&input, "input", "", "input audio file")
		fs.StringVar(&output, "output", "", "write transcript to this path instead of stdout only")
		fs.StringVar(&language, "language", cfg.Transcription.Language, "transcription language hint")
		fs.BoolVar(&refineEnabled, "refine", full && cfg.Refine.Enable, "run the refinement pass")
	}); err != nil {
		return err
	}
	if input == "" {
		return domainerr.NewConfiguration("transcribe requires --input")
	}

	cfg.Transcription.Language = language
	cfg.Refine.Enable = refineEnabled

	worker := buildWorker(cfg, registry)
	tracker := progress.Tracker(progress.Silent{})
	if full {
		tracker = progress.NewTerminal(r.Stderr)
	}

	result, err := pipeline.Workflow(ctx, audio.NewFileSource(input), pipeline.Options{
		Config:   cfg,
		Worker:   worker,
		Progress: tracker,
	}, logger)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w)
	}

	if full {
		s, err := buildSink(cfg, output)
		if err != nil {
			return err
		}
		for _, seg := range result.Segments {
			s.HandleSegment(seg)
		}
		return s.Complete(result)
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(result.Text), 0o644); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
		return nil
	}
	fmt.Fprintln(r.Stdout, result.Text)
	return nil
}

func (r Runner) cmdBatch(ctx context.Context, args []string, cfg config.Config, registry *engine.Registry, logger *slog.Logger) error {
	var dir, outputDir, combinedOutput, combinedSeparator string
	var parallel int
	var continueOnError, combinedFilenames bool
	if _, err := parseFlagSet("batch", args, func(fs *flag.FlagSet) {
		fs.StringVar(&dir, "dir", "", "directory of audio files to transcribe")
		fs.StringVar(&outputDir, "output-dir", "", "directory to write transcripts into")
		fs.IntVar(&parallel, "parallel", 1, "number of files to process concurrently")
		fs.BoolVar(&continueOnError, "continue-on-error", true, "keep processing remaining files after a failure")
		fs.StringVar(&combinedOutput, "combined-output", "", "also write one concatenated transcript to this path")
		fs.BoolVar(&combinedFilenames, "combined-filenames", true, "prefix each entry in the combined transcript with its source filename")
		fs.StringVar(&combinedSeparator, "combined-separator", "\n\n", "separator between entries in the combined transcript")
	}); err != nil {
		return err
	}
	if dir == "" || outputDir == "" {
		return domainerr.NewConfiguration("batch requires --dir and --output-dir")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read batch directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	runner := &batch.Runner{
		Files:               files,
		OutputDir:           outputDir,
		Parallel:            parallel,
		ContinueOnError:     continueOnError,
		Worker:              buildWorker(cfg, registry),
		EngineConfig:        cfg.Engine,
		SegmentationProfile: cfg.Segmentation,
		ArtifactConfig:      cfg.Artifact,
		TranscriptConfig:    cfg.Transcript,
		PreprocessingConfig: cfg.Preprocessing,
		RefineConfig:        cfg.Refine,
		DaemonMode:          cfg.Daemon.Mode,
		EnsureDaemon:        ensureDaemonIfConfigured(cfg, logger),
		Logger:              logger,
	}

	results, err := runner.Run(ctx, progress.NewTerminal(r.Stderr))
	if err != nil {
		return err
	}
	failed := 0
	for _, res := range results {
		if res.Success {
			fmt.Fprintf(r.Stdout, "ok\t%s\t%s\n", res.SourceFile, res.OutputPath)
		} else {
			failed++
			fmt.Fprintf(r.Stdout, "fail\t%s\t%s\n", res.SourceFile, res.Error)
		}
	}

	if combinedOutput != "" {
		if err := batch.GenerateCombinedTranscript(results, combinedOutput, combinedFilenames, combinedSeparator); err != nil {
			return fmt.Errorf("write combined transcript: %w", err)
		}
		fmt.Fprintf(r.Stdout, "combined\t%s\n", combinedOutput)
	}

	stats := batch.ComputeStats(results)
	var rtf float64
	if stats.AudioDurationS > 0 {
		rtf = stats.TotalDurationS / stats.AudioDurationS
	}
	fmt.Fprintf(r.Stdout, "total=%d successful=%d failed=%d audio_duration_s=%.1f rtf=%.4f\n",
		stats.Total, stats.Successful, stats.Failed, stats.AudioDurationS, rtf)

	if failed > 0 {
		return fmt.Errorf("batch: %d of %d files failed", failed, len(results))
	}
	return nil
}

func (r Runner) cmdBench(ctx context.Context, args []string, cfg config.Config, registry *engine.Registry) error {
	var input string
	var iterations int
	if _, err := parseFlagSet("bench", args, func(fs *flag.FlagSet) {
		fs.StringVar(&input, "input", "", "sample wav file")
		fs.IntVar(&iterations, "iterations", 3, "number of timed iterations")
	}); err != nil {
		return err
	}
	if input == "" {
		return domainerr.NewConfiguration("bench requires --input")
	}

	worker := buildWorker(cfg, registry)
	result, err := bench.Run(ctx, worker, input, iterations)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Stdout, "engine=%s model=%s iterations=%d mean_elapsed_s=%.3f audio_duration_s=%.3f rtf=%.4f\n",
		result.Metadata.Engine, result.Metadata.ModelName, result.Iterations, result.MeanElapsedS, result.AudioDurationS, result.RTF)
	return nil
}

func (r Runner) cmdRefine(ctx context.Context, args []string, cfg config.Config, registry *engine.Registry) error {
	var input, output, mode, instructions string
	if _, err := parseFlagSet("refine", args, func(fs *flag.FlagSet) {
		fs.StringVar(&input, "input", "", "text file to refine")
		fs.StringVar(&output, "output", "", "write refined text to this path instead of stdout")
		fs.StringVar(&mode, "mode", string(cfg.Refine.Mode), "grammar_only, summary, or bullet_points")
		fs.StringVar(&instructions, "instructions", cfg.Refine.Instructions, "override refinement instructions")
	}); err != nil {
		return err
	}
	if input == "" {
		return domainerr.NewConfiguration("refine requires --input")
	}

	text, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	worker := buildWorker(cfg, registry)
	refiner := refine.NewEngineRefiner(worker, config.RefineMode(mode))
	refined, err := refiner.Refine(ctx, string(text), instructions)
	if err != nil {
		return err
	}

	if output != "" {
		return os.WriteFile(output, []byte(refined), 0o644)
	}
	fmt.Fprintln(r.Stdout, refined)
	return nil
}

func (r Runner) cmdDaemon(ctx context.Context, args []string, cfg config.Config, registry *engine.Registry, logger *slog.Logger) error {
	if len(args) == 0 {
		return domainerr.NewConfiguration("daemon requires a sub-action: start, stop, status, or logs")
	}
	action, rest := args[0], args[1:]

	switch action {
	case "start":
		var foreground bool
		if _, err := parseFlagSet("daemon start", rest, func(fs *flag.FlagSet) {
			fs.BoolVar(&foreground, "foreground", false, "run the daemon in this process instead of spawning a detached one")
		}); err != nil {
			return err
		}
		if foreground {
			server := daemon.NewServer(cfg, registry, logger)
			return server.Run(ctx)
		}
		manager := daemonManager(cfg, logger)
		pid, err := manager.StartSync(ctx, durationOrDefault(cfg.Daemon.StartTimeoutS, 60*time.Second), nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.Stdout, "daemon started, pid=%d\n", pid)
		return nil

	case "stop":
		manager := daemonManager(cfg, logger)
		if err := manager.Stop(10 * time.Second); err != nil {
			return err
		}
		fmt.Fprintln(r.Stdout, "daemon stopped")
		return nil

	case "status":
		manager := daemonManager(cfg, logger)
		if !manager.IsRunning(ctx) {
			fmt.Fprintln(r.Stdout, "daemon is not running")
			return nil
		}
		status, err := manager.Client.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.Stdout, "status=%s model_loaded=%t model_name=%s uptime_s=%.1f requests_handled=%d\n",
			status.Status, status.ModelLoaded, status.ModelName, status.UptimeSeconds, status.RequestsHandled)
		return nil

	case "logs":
		manager := daemonManager(cfg, logger)
		data, err := os.ReadFile(manager.LogPath)
		if err != nil {
			return fmt.Errorf("read daemon log: %w", err)
		}
		_, err = r.Stdout.Write(data)
		return err

	default:
		return domainerr.NewConfiguration(fmt.Sprintf("unknown daemon action %q", action))
	}
}

func (r Runner) cmdDoctor(ctx context.Context, cfg config.Config) error {
	report := doctor.Run(ctx, cfg)
	fmt.Fprint(r.Stdout, report.String())
	if !report.OK() {
		return fmt.Errorf("doctor: %d check(s) failed", report.FailureCount())
	}
	return nil
}
