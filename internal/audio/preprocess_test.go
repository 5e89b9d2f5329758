package audio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vociferous/vociferous/internal/config"
)

func TestNeedsPreprocessingFalseForZeroValue(t *testing.T) {
	require.False(t, NeedsPreprocessing(config.PreprocessingConfig{}))
}

func TestNeedsPreprocessingTrueForEachKnob(t *testing.T) {
	require.True(t, NeedsPreprocessing(config.PreprocessingConfig{Denoise: true}))
	require.True(t, NeedsPreprocessing(config.PreprocessingConfig{Normalize: true}))
	require.True(t, NeedsPreprocessing(config.PreprocessingConfig{HighpassHz: 100}))
	require.True(t, NeedsPreprocessing(config.PreprocessingConfig{LowpassHz: 3000}))
	require.True(t, NeedsPreprocessing(config.PreprocessingConfig{VolumeAdjustDB: 3}))
}

func TestPreprocessIsIdempotentPassThroughWhenNoopConfig(t *testing.T) {
	p := NewPreprocessor()
	got, err := p.Preprocess(context.Background(), "/tmp/in.wav", "/tmp/out.wav", config.PreprocessingConfig{})
	require.NoError(t, err)
	require.Equal(t, "/tmp/in.wav", got)
}

func TestPreprocessFailsFastWhenFfmpegMissing(t *testing.T) {
	p := &Preprocessor{FFmpegPath: "definitely-not-a-real-binary-xyz"}
	_, err := p.Preprocess(context.Background(), "/tmp/in.wav", "/tmp/out.wav", config.PreprocessingConfig{Denoise: true})
	require.Error(t, err)
}
