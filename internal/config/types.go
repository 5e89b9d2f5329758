// Package config resolves, parses, validates, and defaults the runtime
// configuration for the transcription pipeline.
package config

// Config is the fully materialized runtime configuration.
type Config struct {
	Engine        EngineConfig
	Segmentation  SegmentationProfile
	Preprocessing PreprocessingConfig
	Transcription TranscriptionOptions
	Artifact      ArtifactConfig
	Transcript    TranscriptConfig
	Daemon        DaemonConfig
	History       HistoryConfig
	Refine        RefineConfig
	ClipboardCmd  CommandConfig
}

// EngineKind identifies which ASR backend an EngineConfig targets.
type EngineKind string

const (
	EngineWhisperTurbo EngineKind = "whisper_turbo"
	EngineCanaryQwen   EngineKind = "canary_qwen"
)

// Device selects where the engine runs.
type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// ComputeType selects inference numeric precision.
type ComputeType string

const (
	ComputeAuto     ComputeType = "auto"
	ComputeFP32     ComputeType = "fp32"
	ComputeFP16     ComputeType = "fp16"
	ComputeBF16     ComputeType = "bf16"
	ComputeInt8     ComputeType = "int8"
	ComputeInt8FP16 ComputeType = "int8_fp16"
)

// EngineConfig configures a transcription engine instance.
type EngineConfig struct {
	Kind          EngineKind
	ModelName     string
	Device        Device
	ComputeType   ComputeType
	ModelCacheDir string
	Params        map[string]string
}

// SegmentationProfile configures VAD and condenser behavior.
type SegmentationProfile struct {
	Threshold          float64
	MinSilenceMS       int
	MinSpeechMS        int
	SpeechPadMS        int
	MaxChunkS          float64
	ChunkSearchStartS  float64
	MinGapForSplitS    float64
	MaxSpeechDurationS float64
	SampleRate         int
	Device             Device
}

// PreprocessingConfig configures the optional filter-chain pass.
type PreprocessingConfig struct {
	Denoise        bool
	Normalize      bool
	HighpassHz     float64
	LowpassHz      float64
	VolumeAdjustDB float64
}

// TranscriptionOptions configures per-call engine request hints.
type TranscriptionOptions struct {
	Language    string
	Preset      string
	Prompt      string
	BeamSize    int
	Temperature float64
	Params      map[string]string
}

// ArtifactConfig controls intermediate file naming and cleanup.
type ArtifactConfig struct {
	OutputDirectory      string
	NamingPattern        string
	CleanupIntermediates bool
	KeepOnError          bool
}

// TranscriptConfig controls transcript assembly formatting.
type TranscriptConfig struct {
	TrailingSpace       bool
	CapitalizeSentences bool
}

// DaemonMode selects whether batch runs require, prefer, or skip the warm
// daemon.
type DaemonMode string

const (
	DaemonModeOff    DaemonMode = "off"
	DaemonModeAuto   DaemonMode = "auto"
	DaemonModeAlways DaemonMode = "always"
)

// DaemonConfig configures the warm-model daemon and its clients.
type DaemonConfig struct {
	HTTPAddr           string
	SocketPath         string
	AutoStart          bool
	Mode               DaemonMode
	StartTimeoutS      float64
	TranscribeTimeoutS float64
	PingTimeoutS       float64
	NominalLoadTimeS   float64
}

// HistoryBackend selects the persistence mechanism for the History sink.
type HistoryBackend string

const (
	HistoryBackendNone   HistoryBackend = "none"
	HistoryBackendXML    HistoryBackend = "xml"
	HistoryBackendSQLite HistoryBackend = "sqlite"
)

// HistoryConfig configures the History sink.
type HistoryConfig struct {
	Backend HistoryBackend
	Path    string
}

// RefineMode selects a built-in refinement prompt.
type RefineMode string

const (
	RefineGrammarOnly  RefineMode = "grammar_only"
	RefineSummary      RefineMode = "summary"
	RefineBulletPoints RefineMode = "bullet_points"
)

// RefineConfig configures the refinement pass.
type RefineConfig struct {
	Enable       bool
	Mode         RefineMode
	Instructions string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
