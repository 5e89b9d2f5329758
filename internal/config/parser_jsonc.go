package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Engine        *jsoncEngine        `json:"engine"`
	Segmentation  *jsoncSegmentation  `json:"segmentation"`
	Preprocessing *jsoncPreprocessing `json:"preprocessing"`
	Transcription *jsoncTranscription `json:"transcription"`
	Artifact      *jsoncArtifact      `json:"artifact"`
	Transcript    *jsoncTranscript    `json:"transcript"`
	Daemon        *jsoncDaemon        `json:"daemon"`
	History       *jsoncHistory       `json:"history"`
	Refine        *jsoncRefine        `json:"refine"`
	ClipboardCmd  *string             `json:"clipboard_cmd"`
}

type jsoncEngine struct {
	Kind          *string           `json:"kind"`
	ModelName     *string           `json:"model_name"`
	Device        *string           `json:"device"`
	ComputeType   *string           `json:"compute_type"`
	ModelCacheDir *string           `json:"model_cache_dir"`
	Params        map[string]string `json:"params"`
}

type jsoncSegmentation struct {
	Threshold          *float64 `json:"threshold"`
	MinSilenceMS       *int     `json:"min_silence_ms"`
	MinSpeechMS        *int     `json:"min_speech_ms"`
	SpeechPadMS        *int     `json:"speech_pad_ms"`
	MaxChunkS          *float64 `json:"max_chunk_s"`
	ChunkSearchStartS  *float64 `json:"chunk_search_start_s"`
	MinGapForSplitS    *float64 `json:"min_gap_for_split_s"`
	MaxSpeechDurationS *float64 `json:"max_speech_duration_s"`
	SampleRate         *int     `json:"sample_rate"`
	Device             *string  `json:"device"`
}

type jsoncPreprocessing struct {
	Denoise        *bool    `json:"denoise"`
	Normalize      *bool    `json:"normalize"`
	HighpassHz     *float64 `json:"highpass_hz"`
	LowpassHz      *float64 `json:"lowpass_hz"`
	VolumeAdjustDB *float64 `json:"volume_adjust_db"`
}

type jsoncTranscription struct {
	Language    *string           `json:"language"`
	Preset      *string           `json:"preset"`
	Prompt      *string           `json:"prompt"`
	BeamSize    *int              `json:"beam_size"`
	Temperature *float64          `json:"temperature"`
	Params      map[string]string `json:"params"`
}

type jsoncArtifact struct {
	OutputDirectory      *string `json:"output_directory"`
	NamingPattern        *string `json:"naming_pattern"`
	CleanupIntermediates *bool   `json:"cleanup_intermediates"`
	KeepOnError          *bool   `json:"keep_on_error"`
}

type jsoncTranscript struct {
	TrailingSpace       *bool `json:"trailing_space"`
	CapitalizeSentences *bool `json:"capitalize_sentences"`
}

type jsoncDaemon struct {
	HTTPAddr           *string  `json:"http_addr"`
	SocketPath         *string  `json:"socket_path"`
	AutoStart          *bool    `json:"auto_start"`
	Mode               *string  `json:"mode"`
	StartTimeoutS      *float64 `json:"start_timeout_s"`
	TranscribeTimeoutS *float64 `json:"transcribe_timeout_s"`
	PingTimeoutS       *float64 `json:"ping_timeout_s"`
	NominalLoadTimeS   *float64 `json:"nominal_load_time_s"`
}

type jsoncHistory struct {
	Backend *string `json:"backend"`
	Path    *string `json:"path"`
}

type jsoncRefine struct {
	Enable       *bool   `json:"enable"`
	Mode         *string `json:"mode"`
	Instructions *string `json:"instructions"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if e := payload.Engine; e != nil {
		if e.Kind != nil {
			cfg.Engine.Kind = EngineKind(*e.Kind)
		}
		if e.ModelName != nil {
			cfg.Engine.ModelName = *e.ModelName
		}
		if e.Device != nil {
			cfg.Engine.Device = Device(*e.Device)
		}
		if e.ComputeType != nil {
			cfg.Engine.ComputeType = ComputeType(*e.ComputeType)
		}
		if e.ModelCacheDir != nil {
			cfg.Engine.ModelCacheDir = *e.ModelCacheDir
		}
		if e.Params != nil {
			cfg.Engine.Params = e.Params
		}
	}

	if s := payload.Segmentation; s != nil {
		if s.Threshold != nil {
			cfg.Segmentation.Threshold = *s.Threshold
		}
		if s.MinSilenceMS != nil {
			cfg.Segmentation.MinSilenceMS = *s.MinSilenceMS
		}
		if s.MinSpeechMS != nil {
			cfg.Segmentation.MinSpeechMS = *s.MinSpeechMS
		}
		if s.SpeechPadMS != nil {
			cfg.Segmentation.SpeechPadMS = *s.SpeechPadMS
		}
		if s.MaxChunkS != nil {
			cfg.Segmentation.MaxChunkS = *s.MaxChunkS
		}
		if s.ChunkSearchStartS != nil {
			cfg.Segmentation.ChunkSearchStartS = *s.ChunkSearchStartS
		}
		if s.MinGapForSplitS != nil {
			cfg.Segmentation.MinGapForSplitS = *s.MinGapForSplitS
		}
		if s.MaxSpeechDurationS != nil {
			cfg.Segmentation.MaxSpeechDurationS = *s.MaxSpeechDurationS
		}
		if s.SampleRate != nil {
			cfg.Segmentation.SampleRate = *s.SampleRate
		}
		if s.Device != nil {
			cfg.Segmentation.Device = Device(*s.Device)
		}
	}

	if p := payload.Preprocessing; p != nil {
		if p.Denoise != nil {
			cfg.Preprocessing.Denoise = *p.Denoise
		}
		if p.Normalize != nil {
			cfg.Preprocessing.Normalize = *p.Normalize
		}
		if p.HighpassHz != nil {
			cfg.Preprocessing.HighpassHz = *p.HighpassHz
		}
		if p.LowpassHz != nil {
			cfg.Preprocessing.LowpassHz = *p.LowpassHz
		}
		if p.VolumeAdjustDB != nil {
			cfg.Preprocessing.VolumeAdjustDB = *p.VolumeAdjustDB
		}
	}

	if t := payload.Transcription; t != nil {
		if t.Language != nil {
			cfg.Transcription.Language = *t.Language
		}
		if t.Preset != nil {
			cfg.Transcription.Preset = *t.Preset
		}
		if t.Prompt != nil {
			cfg.Transcription.Prompt = *t.Prompt
		}
		if t.BeamSize != nil {
			cfg.Transcription.BeamSize = *t.BeamSize
		}
		if t.Temperature != nil {
			cfg.Transcription.Temperature = *t.Temperature
		}
		if t.Params != nil {
			cfg.Transcription.Params = t.Params
		}
	}

	if a := payload.Artifact; a != nil {
		if a.OutputDirectory != nil {
			cfg.Artifact.OutputDirectory = *a.OutputDirectory
		}
		if a.NamingPattern != nil {
			cfg.Artifact.NamingPattern = *a.NamingPattern
		}
		if a.CleanupIntermediates != nil {
			cfg.Artifact.CleanupIntermediates = *a.CleanupIntermediates
		}
		if a.KeepOnError != nil {
			cfg.Artifact.KeepOnError = *a.KeepOnError
		}
	}

	if t := payload.Transcript; t != nil {
		if t.TrailingSpace != nil {
			cfg.Transcript.TrailingSpace = *t.TrailingSpace
		}
		if t.CapitalizeSentences != nil {
			cfg.Transcript.CapitalizeSentences = *t.CapitalizeSentences
		}
	}

	if d := payload.Daemon; d != nil {
		if d.HTTPAddr != nil {
			cfg.Daemon.HTTPAddr = *d.HTTPAddr
		}
		if d.SocketPath != nil {
			cfg.Daemon.SocketPath = *d.SocketPath
		}
		if d.AutoStart != nil {
			cfg.Daemon.AutoStart = *d.AutoStart
		}
		if d.Mode != nil {
			cfg.Daemon.Mode = DaemonMode(*d.Mode)
		}
		if d.StartTimeoutS != nil {
			cfg.Daemon.StartTimeoutS = *d.StartTimeoutS
		}
		if d.TranscribeTimeoutS != nil {
			cfg.Daemon.TranscribeTimeoutS = *d.TranscribeTimeoutS
		}
		if d.PingTimeoutS != nil {
			cfg.Daemon.PingTimeoutS = *d.PingTimeoutS
		}
		if d.NominalLoadTimeS != nil {
			cfg.Daemon.NominalLoadTimeS = *d.NominalLoadTimeS
		}
	}

	if h := payload.History; h != nil {
		if h.Backend != nil {
			cfg.History.Backend = HistoryBackend(*h.Backend)
		}
		if h.Path != nil {
			cfg.History.Path = *h.Path
		}
	}

	if r := payload.Refine; r != nil {
		if r.Enable != nil {
			cfg.Refine.Enable = *r.Enable
		}
		if r.Mode != nil {
			cfg.Refine.Mode = RefineMode(*r.Mode)
		}
		if r.Instructions != nil {
			cfg.Refine.Instructions = *r.Instructions
		}
	}

	if payload.ClipboardCmd != nil {
		raw := *payload.ClipboardCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.ClipboardCmd = CommandConfig{Raw: raw, Argv: argv}
	}

	return nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
