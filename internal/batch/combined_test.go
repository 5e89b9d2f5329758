package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCombinedTranscriptOrderAndFilter(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "combined.txt")

	results := []Result{
		{SourceFile: "a.wav", Success: true, TranscriptText: "first transcript"},
		{SourceFile: "b.wav", Success: false, Error: "decode failed"},
		{SourceFile: "c.wav", Success: true, TranscriptText: "third transcript"},
	}

	require.NoError(t, GenerateCombinedTranscript(results, out, true, "\n\n"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "first transcript")
	assert.Contains(t, text, "third transcript")
	assert.NotContains(t, text, "decode failed")
	assert.Less(t, indexOf(text, "first transcript"), indexOf(text, "third transcript"))
}

func TestGenerateCombinedTranscriptWithoutFilenames(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "combined.txt")
	results := []Result{{SourceFile: "a.wav", Success: true, TranscriptText: "hello"}}

	require.NoError(t, GenerateCombinedTranscript(results, out, false, "\n\n"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
