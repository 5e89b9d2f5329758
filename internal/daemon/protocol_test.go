package daemon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vociferous/vociferous/internal/engine"
)

func TestSegmentsFromEngineCarriesFileIndexAndPrefersRefinedText(t *testing.T) {
	in := []engine.TranscriptSegment{
		{ID: 2, Start: 1, End: 2, RawText: "raw", RefinedText: "refined", Speaker: "a", Language: "en"},
		{ID: 0, Start: 3, End: 4, RawText: "only raw"},
	}
	out := segmentsFromEngine(in)

	require.Len(t, out, 2)
	require.Equal(t, 2, out[0].FileIndex)
	require.Equal(t, "refined", out[0].Text)
	require.Equal(t, 0, out[1].FileIndex)
	require.Equal(t, "only raw", out[1].Text)
}

func TestSegmentsToEngineRoundTripsFileIndexIntoID(t *testing.T) {
	in := []Segment{
		{Start: 1, End: 2, Text: "hello", FileIndex: 3},
		{Start: 2, End: 3, Text: "world", FileIndex: 1},
	}
	out := segmentsToEngine(in)

	require.Len(t, out, 2)
	require.Equal(t, 3, out[0].ID)
	require.Equal(t, "hello", out[0].RawText)
	require.Equal(t, 1, out[1].ID)
}

func TestSegmentRoundTripIsLossless(t *testing.T) {
	original := []engine.TranscriptSegment{
		{ID: 5, Start: 0.5, End: 1.5, RawText: "raw text", Speaker: "spk", Language: "en"},
	}
	wire := segmentsFromEngine(original)
	back := segmentsToEngine(wire)

	require.Equal(t, original[0].ID, back[0].ID)
	require.Equal(t, original[0].Start, back[0].Start)
	require.Equal(t, original[0].End, back[0].End)
	require.Equal(t, original[0].RawText, back[0].RawText)
	require.Equal(t, original[0].Speaker, back[0].Speaker)
	require.Equal(t, original[0].Language, back[0].Language)
}
