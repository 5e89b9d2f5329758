package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown engine kind", mutate: func(c *Config) { c.Engine.Kind = "made_up" }, wantErr: "unsupported engine kind"},
		{name: "bad device", mutate: func(c *Config) { c.Engine.Device = "tpu" }, wantErr: "engine.device"},
		{name: "bad compute type", mutate: func(c *Config) { c.Engine.ComputeType = "fp4" }, wantErr: "engine.compute_type"},
		{name: "empty model name", mutate: func(c *Config) { c.Engine.ModelName = "" }, wantErr: "model_name"},
		{name: "threshold out of range", mutate: func(c *Config) { c.Segmentation.Threshold = 1.5 }, wantErr: "threshold"},
		{name: "zero max chunk", mutate: func(c *Config) { c.Segmentation.MaxChunkS = 0 }, wantErr: "max_chunk_s"},
		{name: "negative min gap", mutate: func(c *Config) { c.Segmentation.MinGapForSplitS = -1 }, wantErr: "min_gap_for_split_s"},
		{name: "zero max speech duration", mutate: func(c *Config) { c.Segmentation.MaxSpeechDurationS = 0 }, wantErr: "max_speech_duration_s"},
		{name: "zero sample rate", mutate: func(c *Config) { c.Segmentation.SampleRate = 0 }, wantErr: "sample_rate"},
		{name: "empty language", mutate: func(c *Config) { c.Transcription.Language = "" }, wantErr: "language"},
		{name: "empty naming pattern", mutate: func(c *Config) { c.Artifact.NamingPattern = "" }, wantErr: "naming_pattern"},
		{name: "bad history backend", mutate: func(c *Config) { c.History.Backend = "csv" }, wantErr: "history.backend"},
		{name: "bad refine mode", mutate: func(c *Config) { c.Refine.Mode = "haiku" }, wantErr: "refine.mode"},
		{name: "empty clipboard argv", mutate: func(c *Config) { c.ClipboardCmd.Argv = nil }, wantErr: "clipboard_cmd"},
		{name: "zero start timeout", mutate: func(c *Config) { c.Daemon.StartTimeoutS = 0 }, wantErr: "start_timeout_s"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsOnEmptyHistoryPath(t *testing.T) {
	cfg := Default()
	cfg.History.Backend = HistoryBackendSQLite
	cfg.History.Path = ""

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
}

func TestResolvePresetKnownNames(t *testing.T) {
	clean, err := ResolvePreset("clean")
	require.NoError(t, err)
	require.True(t, clean.Denoise)
	require.True(t, clean.Normalize)

	phone, err := ResolvePreset("phone")
	require.NoError(t, err)
	require.Equal(t, 300.0, phone.HighpassHz)
	require.Equal(t, 3400.0, phone.LowpassHz)

	podcast, err := ResolvePreset("podcast")
	require.NoError(t, err)
	require.True(t, podcast.Normalize)
	require.Equal(t, 80.0, podcast.HighpassHz)

	none, err := ResolvePreset("")
	require.NoError(t, err)
	require.Equal(t, PreprocessingConfig{}, none)
}

func TestResolvePresetUnknownFails(t *testing.T) {
	_, err := ResolvePreset("studio")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown preprocessing preset")
}
