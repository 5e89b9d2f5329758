// Package engine owns the transcription engine abstraction: profile and
// config types, the daemon-aware worker that routes work to a warm daemon
// or a local engine instance, and the registry of engine constructors.
package engine

import "github.com/vociferous/vociferous/internal/config"

// Kind identifies which concrete engine implementation a profile selects.
type Kind = config.EngineKind

// TranscriptSegment is one unit of recognized speech on a chunk-relative
// timeline; the pipeline orchestrator stitches these onto the original
// audio timeline (see internal/pipeline/offsets.go).
type TranscriptSegment struct {
	ID          int
	Start       float64
	End         float64
	RawText     string
	RefinedText string
	Language    string
	Speaker     string
	Confidence  float64
}

// Text returns the refined text when present, else the raw recognized text.
func (s TranscriptSegment) Text() string {
	if s.RefinedText != "" {
		return s.RefinedText
	}
	return s.RawText
}

// Config mirrors config.EngineConfig; it is the normalized, validated form
// an Engine is constructed from.
type Config = config.EngineConfig

// Options mirrors config.TranscriptionOptions.
type Options = config.TranscriptionOptions

// Profile is the triple (kind, config, options) passed as a unit to the
// worker and, ultimately, to the daemon or local engine.
type Profile struct {
	Kind    config.EngineKind
	Config  Config
	Options Options
}

// Metadata describes the engine instance actually used to produce a result.
type Metadata struct {
	ModelName string
	Device    string
	Precision string
	Engine    string
}

// Engine is the capability surface a concrete model binding implements.
// Only TranscribeFile is mandatory; the others are detected at runtime via
// the optional interfaces below.
type Engine interface {
	TranscribeFile(path string, opts Options) ([]TranscriptSegment, error)
	Metadata() Metadata
}

// BatchTranscriber is an optional capability: an engine that can transcribe
// many chunk files in a single native call instead of one-at-a-time.
type BatchTranscriber interface {
	TranscribeBatch(paths []string, opts Options) ([][]TranscriptSegment, error)
}

// TextRefiner is an optional capability: an engine whose underlying model
// can also refine already-transcribed text.
type TextRefiner interface {
	RefineText(text string, instructions string) (string, error)
}

// SegmentRefiner is an optional capability: an engine that can refine a
// full segment list at once (e.g. to preserve per-segment diffs).
type SegmentRefiner interface {
	RefineSegments(segments []TranscriptSegment, mode string, instructions string) ([]TranscriptSegment, error)
}

// Constructor builds a new Engine instance from a normalized Config.
type Constructor func(cfg Config) (Engine, error)
