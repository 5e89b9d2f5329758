package config

import (
	"fmt"
	"strings"
)

var validEngineKinds = map[EngineKind]bool{
	EngineWhisperTurbo: true,
	EngineCanaryQwen:   true,
}

var validDevices = map[Device]bool{
	DeviceAuto: true,
	DeviceCPU:  true,
	DeviceCUDA: true,
}

var validComputeTypes = map[ComputeType]bool{
	ComputeAuto:     true,
	ComputeFP32:     true,
	ComputeFP16:     true,
	ComputeBF16:     true,
	ComputeInt8:     true,
	ComputeInt8FP16: true,
}

var validHistoryBackends = map[HistoryBackend]bool{
	HistoryBackendNone:   true,
	HistoryBackendXML:    true,
	HistoryBackendSQLite: true,
}

var validRefineModes = map[RefineMode]bool{
	RefineGrammarOnly:  true,
	RefineSummary:      true,
	RefineBulletPoints: true,
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if !validEngineKinds[cfg.Engine.Kind] {
		return nil, fmt.Errorf("unsupported engine kind: %q", cfg.Engine.Kind)
	}
	if !validDevices[cfg.Engine.Device] {
		return nil, fmt.Errorf("engine.device must be one of auto, cpu, cuda")
	}
	if !validComputeTypes[cfg.Engine.ComputeType] {
		return nil, fmt.Errorf("engine.compute_type must be one of auto, fp32, fp16, bf16, int8, int8_fp16")
	}
	if strings.TrimSpace(cfg.Engine.ModelName) == "" {
		return nil, fmt.Errorf("engine.model_name must not be empty")
	}

	if cfg.Segmentation.Threshold <= 0 || cfg.Segmentation.Threshold >= 1 {
		return nil, fmt.Errorf("segmentation.threshold must be in (0, 1)")
	}
	if cfg.Segmentation.MaxChunkS <= 0 {
		return nil, fmt.Errorf("segmentation.max_chunk_s must be > 0")
	}
	if cfg.Segmentation.MinGapForSplitS < 0 {
		return nil, fmt.Errorf("segmentation.min_gap_for_split_s must be >= 0")
	}
	if cfg.Segmentation.MaxSpeechDurationS <= 0 {
		return nil, fmt.Errorf("segmentation.max_speech_duration_s must be > 0")
	}
	if cfg.Segmentation.SampleRate <= 0 {
		return nil, fmt.Errorf("segmentation.sample_rate must be > 0")
	}
	if !validDevices[cfg.Segmentation.Device] {
		return nil, fmt.Errorf("segmentation.device must be one of auto, cpu, cuda")
	}

	if strings.TrimSpace(cfg.Transcription.Language) == "" {
		return nil, fmt.Errorf("transcription.language must not be empty")
	}

	if strings.TrimSpace(cfg.Artifact.NamingPattern) == "" {
		return nil, fmt.Errorf("artifact.naming_pattern must not be empty")
	}

	if !validHistoryBackends[cfg.History.Backend] {
		return nil, fmt.Errorf("history.backend must be one of none, xml, sqlite")
	}
	if cfg.History.Backend != HistoryBackendNone && strings.TrimSpace(cfg.History.Path) == "" {
		warnings = append(warnings, Warning{Message: "history.path is empty; no default path is substituted"})
	}

	if !validRefineModes[cfg.Refine.Mode] {
		return nil, fmt.Errorf("refine.mode must be one of grammar_only, summary, bullet_points")
	}

	if len(cfg.ClipboardCmd.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}

	switch cfg.Daemon.Mode {
	case DaemonModeOff, DaemonModeAuto, DaemonModeAlways, "":
	default:
		return nil, fmt.Errorf("daemon.mode must be one of off, auto, always")
	}

	if cfg.Daemon.StartTimeoutS <= 0 {
		return nil, fmt.Errorf("daemon.start_timeout_s must be > 0")
	}
	if cfg.Daemon.TranscribeTimeoutS <= 0 {
		return nil, fmt.Errorf("daemon.transcribe_timeout_s must be > 0")
	}
	if cfg.Daemon.PingTimeoutS <= 0 {
		return nil, fmt.Errorf("daemon.ping_timeout_s must be > 0")
	}

	return warnings, nil
}

// ResolvePreset applies a named preprocessing preset over defaults.
func ResolvePreset(name string) (PreprocessingConfig, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return PreprocessingConfig{}, nil
	case "basic":
		return PreprocessingConfig{Normalize: true}, nil
	case "clean":
		return PreprocessingConfig{Denoise: true, Normalize: true}, nil
	case "phone":
		return PreprocessingConfig{Denoise: true, Normalize: true, HighpassHz: 300, LowpassHz: 3400}, nil
	case "podcast":
		return PreprocessingConfig{Normalize: true, HighpassHz: 80}, nil
	default:
		return PreprocessingConfig{}, fmt.Errorf("unknown preprocessing preset: %q", name)
	}
}
