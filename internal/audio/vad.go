package audio

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/vociferous/vociferous/internal/config"
	"github.com/vociferous/vociferous/internal/domainerr"
)

// SpeechSpan is a detected speech interval on the original audio timeline;
// 0 <= Start < End <= duration.
type SpeechSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Detector wraps the Silero VAD model (via sherpa-onnx-go). Model
// weights are an opaque external collaborator; this type only owns the
// sample-feeding loop and the pad/merge/split algorithm around it.
type Detector struct {
	ModelPath  string
	FFmpegPath string
}

// NewDetector constructs a Detector for the Silero VAD ONNX weights at
// modelPath.
func NewDetector(modelPath string) *Detector {
	return &Detector{ModelPath: modelPath, FFmpegPath: "ffmpeg"}
}

// Detect runs raw detection, padding, merge, and max-duration splitting.
// It returns domainerr.KindVAD when the final span list is empty.
func (d *Detector) Detect(ctx context.Context, wavPath string, profile config.SegmentationProfile) ([]SpeechSpan, error) {
	if _, err := os.Stat(d.ModelPath); err != nil {
		return nil, domainerr.NewDependency("silero-vad model weights")
	}

	duration, err := wavDurationSeconds(wavPath)
	if err != nil {
		return nil, domainerr.New(domainerr.KindVAD, fmt.Sprintf("failed to read duration of %s: %v", wavPath, err)).WithCause(err)
	}

	raw, err := d.rawSpans(ctx, wavPath, profile)
	if err != nil {
		return nil, domainerr.New(domainerr.KindVAD, fmt.Sprintf("VAD inference failed on %s: %v", wavPath, err)).WithCause(err)
	}

	spans := PadSpans(raw, duration, float64(profile.SpeechPadMS)/1000.0)
	spans = MergeSpans(spans)
	spans = EnforceMaxDuration(spans, profile.MaxSpeechDurationS)

	if len(spans) == 0 {
		return nil, domainerr.NewNoSpeech()
	}
	return spans, nil
}

// rawSpans feeds 16kHz mono s16 PCM (decoded via ffmpeg) through the Silero
// VAD model and returns unpadded, unmerged spans in seconds.
func (d *Detector) rawSpans(ctx context.Context, wavPath string, profile config.SegmentationProfile) ([]SpeechSpan, error) {
	sampleRate := profile.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}

	vadConfig := sherpa.VadModelConfig{
		SileroVad: sherpa.SileroVadModelConfig{
			Model:              d.ModelPath,
			Threshold:          float32(profile.Threshold),
			MinSilenceDuration: float32(profile.MinSilenceMS) / 1000,
			MinSpeechDuration:  float32(profile.MinSpeechMS) / 1000,
			WindowSize:         512,
		},
		SampleRate: sampleRate,
		NumThreads: 1,
		Debug:      0,
	}

	vad := sherpa.NewVoiceActivityDetector(&vadConfig, 60)
	if vad == nil {
		return nil, fmt.Errorf("failed to construct Silero VAD instance")
	}
	defer sherpa.DeleteVoiceActivityDetector(vad)

	cmd := exec.CommandContext(ctx, d.FFmpegPath,
		"-i", wavPath,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
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

	reader := bufio.NewReader(stdout)
	const windowSamples = 512
	windowBytes := windowSamples * 2

	var spans []SpeechSpan
	var processedSamples int64

	drain := func() {
		for !vad.IsEmpty() {
			seg := vad.Front()
			vad.Pop()
			start := float64(seg.Start) / float64(sampleRate)
			end := start + float64(len(seg.Samples))/float64(sampleRate)
			spans = append(spans, SpeechSpan{Start: start, End: end})
		}
	}

	for {
		buf := make([]byte, windowBytes)
		n, readErr := io.ReadFull(reader, buf)
		if n > 0 {
			samples := bytesToFloat32(buf[:n])
			vad.AcceptWaveform(samples)
			processedSamples += int64(len(samples))
			drain()
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			_ = cmd.Wait()
			return nil, fmt.Errorf("read pcm stream: %w", readErr)
		}
	}

	vad.Flush()
	drain()
	_ = cmd.Wait()

	return spans, nil
}

func bytesToFloat32(buf []byte) []float32 {
	out := make([]float32, len(buf)/2)
	for i := range out {
		sample := int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
		out[i] = float32(sample) / 32768.0
	}
	return out
}

func wavDurationSeconds(path string) (float64, error) {
	info, err := ReadWavInfo(path)
	if err != nil {
		return 0, err
	}
	return info.DurationS, nil
}

// PadSpans pads every span by ±padS, clamps to [0, duration], and drops
// spans that become empty after clamping.
func PadSpans(spans []SpeechSpan, duration, padS float64) []SpeechSpan {
	out := make([]SpeechSpan, 0, len(spans))
	for _, s := range spans {
		start := s.Start - padS
		end := s.End + padS
		if start < 0 {
			start = 0
		}
		if end > duration {
			end = duration
		}
		if end > start {
			out = append(out, SpeechSpan{Start: start, End: end})
		}
	}
	return out
}

// MergeSpans sorts spans by start and merges any two whose intervals
// overlap or touch (next.Start <= prev.End).
func MergeSpans(spans []SpeechSpan) []SpeechSpan {
	if len(spans) == 0 {
		return spans
	}
	sorted := make([]SpeechSpan, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []SpeechSpan{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// EnforceMaxDuration splits any span longer than maxDurationS into
// equal-sized sub-spans of length <= maxDurationS, preserving order. A
// non-positive maxDurationS disables splitting.
func EnforceMaxDuration(spans []SpeechSpan, maxDurationS float64) []SpeechSpan {
	if maxDurationS <= 0 {
		return spans
	}
	out := make([]SpeechSpan, 0, len(spans))
	for _, s := range spans {
		length := s.End - s.Start
		if length <= maxDurationS {
			out = append(out, s)
			continue
		}
		parts := int(length/maxDurationS) + 1
		subLen := length / float64(parts)
		for i := 0; i < parts; i++ {
			start := s.Start + float64(i)*subLen
			end := start + subLen
			if i == parts-1 {
				end = s.End
			}
			out = append(out, SpeechSpan{Start: start, End: end})
		}
	}
	return out
}
