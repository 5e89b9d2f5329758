package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/vociferous/vociferous/internal/config"
)

// localEngine is the in-process (non-daemon) transcription engine backing:
// model-file discovery by candidate filename around a
// sherpa.OfflineRecognizer. Model weights are an opaque external
// collaborator; this type only owns the file-discovery and feed loop
// around them.
type localEngine struct {
	cfg        Config
	recognizer *sherpa.OfflineRecognizer
	sampleRate int
}

var whisperEncoderCandidates = []string{
	"encoder.int8.onnx", "encoder.onnx",
	"turbo-encoder.int8.onnx", "turbo-encoder.onnx",
	"large-v3-encoder.int8.onnx", "large-v3-encoder.onnx",
}
var whisperDecoderCandidates = []string{
	"decoder.int8.onnx", "decoder.onnx",
	"turbo-decoder.int8.onnx", "turbo-decoder.onnx",
	"large-v3-decoder.int8.onnx", "large-v3-decoder.onnx",
}
var tokensCandidates = []string{"tokens.txt"}

var canaryEncoderCandidates = []string{"encoder.int8.onnx", "encoder.onnx"}
var canaryDecoderCandidates = []string{"decoder.int8.onnx", "decoder.onnx"}

// NewLocalEngine constructs a local sherpa-onnx-backed engine for cfg.Kind.
// Registered in Default() for every EngineKind config.go recognizes.
func NewLocalEngine(cfg Config) (Engine, error) {
	if cfg.ModelCacheDir == "" {
		return nil, fmt.Errorf("engine: model_cache_dir is required to locate %s weights", cfg.Kind)
	}

	const sampleRate = 16000
	numThreads := 4

	var sherpaCfg sherpa.OfflineRecognizerConfig
	switch cfg.Kind {
	case config.EngineWhisperTurbo:
		encoder := findModelFile(cfg.ModelCacheDir, whisperEncoderCandidates)
		decoder := findModelFile(cfg.ModelCacheDir, whisperDecoderCandidates)
		tokens := findModelFile(cfg.ModelCacheDir, tokensCandidates)
		if encoder == "" || decoder == "" || tokens == "" {
			return nil, fmt.Errorf("engine: whisper_turbo weights not found under %s", cfg.ModelCacheDir)
		}
		sherpaCfg = sherpa.OfflineRecognizerConfig{
			FeatConfig: sherpa.FeatureConfig{SampleRate: sampleRate, FeatureDim: 80},
			ModelConfig: sherpa.OfflineModelConfig{
				Whisper: sherpa.OfflineWhisperModelConfig{
					Encoder: encoder,
					Decoder: decoder,
					Task:    "transcribe",
				},
				Tokens:     tokens,
				NumThreads: numThreads,
			},
		}
	case config.EngineCanaryQwen:
		encoder := findModelFile(cfg.ModelCacheDir, canaryEncoderCandidates)
		decoder := findModelFile(cfg.ModelCacheDir, canaryDecoderCandidates)
		tokens := findModelFile(cfg.ModelCacheDir, tokensCandidates)
		if encoder == "" || decoder == "" || tokens == "" {
			return nil, fmt.Errorf("engine: canary_qwen weights not found under %s", cfg.ModelCacheDir)
		}
		sherpaCfg = sherpa.OfflineRecognizerConfig{
			FeatConfig: sherpa.FeatureConfig{SampleRate: sampleRate, FeatureDim: 80},
			ModelConfig: sherpa.OfflineModelConfig{
				Transducer: sherpa.OfflineTransducerModelConfig{
					Encoder: encoder,
					Decoder: decoder,
				},
				Tokens:     tokens,
				NumThreads: numThreads,
			},
		}
	default:
		return nil, fmt.Errorf("engine: unsupported kind %q", cfg.Kind)
	}

	recognizer := sherpa.NewOfflineRecognizer(&sherpaCfg)
	if recognizer == nil {
		return nil, fmt.Errorf("engine: failed to construct offline recognizer for %s", cfg.Kind)
	}

	return &localEngine{cfg: cfg, recognizer: recognizer, sampleRate: sampleRate}, nil
}

func findModelFile(dir string, candidates []string) string {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// TranscribeFile decodes chunkPath to raw PCM via ffmpeg and feeds it to the
// offline recognizer in one shot (chunks are already bounded by
// MaxChunkS, so no internal re-chunking is required here).
func (e *localEngine) TranscribeFile(chunkPath string, opts Options) ([]TranscriptSegment, error) {
	samples, err := e.decodeToFloat32(chunkPath)
	if err != nil {
		return nil, err
	}

	stream := sherpa.NewOfflineStream(e.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(e.sampleRate, samples)
	e.recognizer.Decode(stream)
	result := stream.GetResult()

	durationS := float64(len(samples)) / float64(e.sampleRate)
	text := ""
	if result != nil {
		text = result.Text
	}
	if text == "" {
		return nil, nil
	}

	return []TranscriptSegment{{
		ID:       0,
		Start:    0,
		End:      durationS,
		RawText:  text,
		Language: opts.Language,
	}}, nil
}

// TranscribeBatch runs TranscribeFile per path; sherpa-onnx's
// OfflineRecognizer supports per-stream batching internally but this
// binding drives one stream per call for simplicity.
func (e *localEngine) TranscribeBatch(paths []string, opts Options) ([][]TranscriptSegment, error) {
	out := make([][]TranscriptSegment, len(paths))
	for i, p := range paths {
		segs, err := e.TranscribeFile(p, opts)
		if err != nil {
			return nil, fmt.Errorf("transcribe chunk %s: %w", p, err)
		}
		out[i] = segs
	}
	return out, nil
}

func (e *localEngine) Metadata() Metadata {
	return Metadata{
		ModelName: e.cfg.ModelName,
		Device:    string(e.cfg.Device),
		Precision: string(e.cfg.ComputeType),
		Engine:    string(e.cfg.Kind),
	}
}

func (e *localEngine) decodeToFloat32(path string) ([]float32, error) {
	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", e.sampleRate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	data, err := io.ReadAll(bufio.NewReader(stdout))
	if err != nil {
		_ = cmd.Wait()
		return nil, fmt.Errorf("read pcm stream: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		lo, hi := data[i*2], data[i*2+1]
		v := int16(uint16(lo) | uint16(hi)<<8)
		samples[i] = float32(v) / 32768.0
	}
	return samples, nil
}
