package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vociferous/vociferous/internal/config"
)

type stubEngine struct{}

func (stubEngine) TranscribeFile(path string, opts Options) ([]TranscriptSegment, error) {
	return nil, nil
}
func (stubEngine) Metadata() Metadata { return Metadata{Engine: "stub"} }

func TestRegistryLookupAndNames(t *testing.T) {
	reg := NewRegistry(map[Kind]Constructor{
		config.EngineWhisperTurbo: func(cfg Config) (Engine, error) { return stubEngine{}, nil },
	})

	ctor, ok := reg.Lookup(config.EngineWhisperTurbo)
	require.True(t, ok)
	require.NotNil(t, ctor)

	_, ok = reg.Lookup(config.EngineCanaryQwen)
	require.False(t, ok)

	require.Equal(t, []Kind{config.EngineWhisperTurbo}, reg.Names())
}

func TestRegistryBuildSucceeds(t *testing.T) {
	reg := NewRegistry(map[Kind]Constructor{
		config.EngineWhisperTurbo: func(cfg Config) (Engine, error) { return stubEngine{}, nil },
	})

	e, err := reg.Build(Config{}, config.EngineWhisperTurbo)
	require.NoError(t, err)
	require.Equal(t, "stub", e.Metadata().Engine)
}

func TestRegistryBuildFailsForUnregisteredKind(t *testing.T) {
	reg := NewRegistry(map[Kind]Constructor{})
	_, err := reg.Build(Config{}, config.EngineWhisperTurbo)
	require.Error(t, err)
	require.Contains(t, err.Error(), "whisper")
}

func TestRegistryBuildPropagatesConstructorError(t *testing.T) {
	wantErr := errors.New("boom")
	reg := NewRegistry(map[Kind]Constructor{
		config.EngineWhisperTurbo: func(cfg Config) (Engine, error) { return nil, wantErr },
	})

	_, err := reg.Build(Config{}, config.EngineWhisperTurbo)
	require.ErrorIs(t, err, wantErr)
}

func TestDefaultRegistryRegistersKnownKinds(t *testing.T) {
	reg := Default()
	_, ok := reg.Lookup(config.EngineWhisperTurbo)
	require.True(t, ok)
	_, ok = reg.Lookup(config.EngineCanaryQwen)
	require.True(t, ok)
}
