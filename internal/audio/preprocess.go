package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vociferous/vociferous/internal/config"
	"github.com/vociferous/vociferous/internal/domainerr"
)

// NeedsPreprocessing reports whether cfg differs from its zero value: the
// preprocessor is a no-op pass-through otherwise.
func NeedsPreprocessing(cfg config.PreprocessingConfig) bool {
	return cfg.Denoise || cfg.Normalize || cfg.HighpassHz != 0 || cfg.LowpassHz != 0 || cfg.VolumeAdjustDB != 0
}

// Preprocessor applies an optional single filter-chain pass (highpass,
// lowpass, volume, loudness normalization) via one ffmpeg invocation.
type Preprocessor struct {
	FFmpegPath string
}

// NewPreprocessor constructs a Preprocessor that shells out to the ffmpeg
// binary on PATH.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{FFmpegPath: "ffmpeg"}
}

// Preprocess applies cfg's filter chain to in, writing the result to out.
// When cfg needs no processing, it returns in unchanged and never touches
// out.
func (p *Preprocessor) Preprocess(ctx context.Context, in, out string, cfg config.PreprocessingConfig) (string, error) {
	if !NeedsPreprocessing(cfg) {
		return in, nil
	}

	highpass, lowpass := cfg.HighpassHz, cfg.LowpassHz
	if cfg.Denoise && highpass == 0 && lowpass == 0 {
		highpass, lowpass = 200, 3500
	}

	filters := make([]string, 0, 4)
	if highpass > 0 {
		filters = append(filters, fmt.Sprintf("highpass=f=%g", highpass))
	}
	if lowpass > 0 {
		filters = append(filters, fmt.Sprintf("lowpass=f=%g", lowpass))
	}
	if cfg.VolumeAdjustDB != 0 {
		filters = append(filters, fmt.Sprintf("volume=%gdB", cfg.VolumeAdjustDB))
	}
	if cfg.Normalize {
		filters = append(filters, "loudnorm=I=-16:TP=-1.5:LRA=11")
	}
	chain := strings.Join(filters, ",")

	if _, err := exec.LookPath(p.FFmpegPath); err != nil {
		return "", domainerr.NewDependency("ffmpeg")
	}

	cmd := exec.CommandContext(ctx, p.FFmpegPath,
		"-i", in,
		"-af", chain,
		"-ar", "16000",
		"-ac", "1",
		"-y", out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", domainerr.NewAudioProcessing(
			fmt.Sprintf("preprocessing filter chain failed on %s", in),
			chain,
			err,
		)
	}

	return out, nil
}
