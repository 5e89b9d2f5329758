package pipeline

import "github.com/vociferous/vociferous/internal/engine"

// StitchOffsets rewrites each chunk's segments from chunk-relative timestamps
// onto the original audio timeline: offset_0 = 0,
// offset_{k+1} = offset_k + duration_of(chunk_k). chunkDurations[k] is the
// duration of chunks[k]; entries beyond len(chunks) are ignored.
func StitchOffsets(chunks [][]engine.TranscriptSegment, chunkDurations []float64) []engine.TranscriptSegment {
	var out []engine.TranscriptSegment
	offset := 0.0
	for i, segs := range chunks {
		for _, s := range segs {
			s.Start += offset
			s.End += offset
			out = append(out, s)
		}
		if i < len(chunkDurations) {
			offset += chunkDurations[i]
		}
	}
	return out
}
