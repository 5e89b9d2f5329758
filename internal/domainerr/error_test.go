package domainerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSerializationRoundTrip(t *testing.T) {
	e := New(KindAudioDecode, "could not decode input").
		WithContext("path", "/tmp/foo.mp3").
		WithSuggestion("file may be corrupted").
		WithCause(errors.New("exit status 1"))

	dict := e.ToDict()
	restored := FromDict(dict)

	assert.Equal(t, e.Message, restored.Message)
	assert.Equal(t, e.Kind, restored.Kind)
	assert.Equal(t, e.Context["path"], restored.Context["path"])
	assert.Equal(t, e.Suggestions, restored.Suggestions)
	require.Error(t, restored.Cause)
}

func TestAudioDecodeSuggestionsFromStderr(t *testing.T) {
	cases := []struct {
		stderr   string
		expected string
	}{
		{"Error: Invalid data found when processing input", "file may be corrupted"},
		{"open foo.wav: Permission denied", "check permissions"},
		{"foo.wav: No such file or directory", "path does not exist"},
	}
	for _, tc := range cases {
		e := NewAudioDecode("decode failed", 1, tc.stderr)
		assert.Contains(t, e.Suggestions, tc.expected)
	}
}

func TestTitleCaseFormatsKindForDialogs(t *testing.T) {
	assert.Equal(t, "Audio Decode Error", TitleCase(KindAudioDecode))
	assert.Equal(t, "VAD Error", TitleCase(KindVAD))
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	e := NewEngine("model load failed", cause)
	assert.True(t, errors.Is(e, cause))
}

func TestErrorStringIncludesKindAndMessage(t *testing.T) {
	e := New(KindConfiguration, "unknown engine kind")
	assert.Equal(t, "Configuration: unknown engine kind", e.Error())
}
