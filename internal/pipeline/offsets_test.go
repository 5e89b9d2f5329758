package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vociferous/vociferous/internal/engine"
)

func TestStitchOffsetsAccumulatesChunkDurations(t *testing.T) {
	chunks := [][]engine.TranscriptSegment{
		{{Start: 0, End: 1.5, RawText: "hello"}},
		{{Start: 0, End: 2.0, RawText: "world"}, {Start: 2.0, End: 3.0, RawText: "again"}},
	}
	durations := []float64{5.0, 4.0}

	out := StitchOffsets(chunks, durations)

	assert.Len(t, out, 3)
	assert.Equal(t, 0.0, out[0].Start)
	assert.Equal(t, 1.5, out[0].End)
	assert.Equal(t, 5.0, out[1].Start)
	assert.Equal(t, 7.0, out[1].End)
	assert.Equal(t, 7.0, out[2].Start)
	assert.Equal(t, 8.0, out[2].End)
}

func TestStitchOffsetsEmptyChunks(t *testing.T) {
	out := StitchOffsets(nil, nil)
	assert.Empty(t, out)
}

func TestStitchOffsetsIgnoresExtraDurations(t *testing.T) {
	chunks := [][]engine.TranscriptSegment{
		{{Start: 0, End: 1, RawText: "a"}},
	}
	out := StitchOffsets(chunks, []float64{3.0, 99.0})
	assert.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0].Start)
}
