package bench

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vociferous/vociferous/internal/audio"
	"github.com/vociferous/vociferous/internal/engine"
)

type fakeEngine struct{}

func (fakeEngine) TranscribeFile(path string, opts engine.Options) ([]engine.TranscriptSegment, error) {
	return []engine.TranscriptSegment{{Start: 0, End: 1, RawText: "hi"}}, nil
}

func (fakeEngine) Metadata() engine.Metadata {
	return engine.Metadata{ModelName: "fake", Engine: "fake"}
}

func writeSilentWav(t *testing.T, path string, seconds float64) {
	t.Helper()
	sampleRate := 16000
	samples := int(seconds * float64(sampleRate))
	pcm := make([]byte, samples*2)
	require.NoError(t, audio.WriteMonoWav(path, uint32(sampleRate), pcm))
}

func TestRunReportsRTF(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "sample.wav")
	writeSilentWav(t, wavPath, 2.0)

	worker := engine.NewWorker(engine.Profile{}, nil, nil, false, fakeEngine{})
	result, err := Run(context.Background(), worker, wavPath, 3)
	require.NoError(t, err)

	require.Equal(t, 3, result.Iterations)
	require.InDelta(t, 2.0, result.AudioDurationS, 0.01)
	require.Greater(t, result.TotalElapsedS, 0.0)
	require.Greater(t, result.RTF, 0.0)
}

func TestRunRejectsZeroDurationFile(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "empty.wav")
	require.NoError(t, os.WriteFile(wavPath, []byte{}, 0o644))

	worker := engine.NewWorker(engine.Profile{}, nil, nil, false, fakeEngine{})
	_, err := Run(context.Background(), worker, wavPath, 1)
	require.Error(t, err)
}
