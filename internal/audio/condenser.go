package audio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"

	"github.com/vociferous/vociferous/internal/config"
	"github.com/vociferous/vociferous/internal/domainerr"
)

const boundaryMarginS = 0.1

// Condenser turns a VAD span list and a source WAV into one or more chunk
// files, each bounded by profile.MaxChunkS. Each chunk is built with a
// single ffmpeg filter-graph invocation that concatenates the selected
// spans with a trim margin.
type Condenser struct {
	FFmpegPath string
}

// NewCondenser constructs a Condenser driving the ffmpeg binary on PATH.
func NewCondenser() *Condenser {
	return &Condenser{FFmpegPath: "ffmpeg"}
}

// plan is one emitted chunk: the ordered spans it concatenates.
type plan struct {
	spans []SpeechSpan
}

// PlanChunks groups spans into chunk plans honoring MaxChunkS,
// ChunkSearchStartS, and MinGapForSplitS, without touching the filesystem.
// Exposed separately from Condense so the grouping algorithm is
// unit-testable without ffmpeg.
func PlanChunks(spans []SpeechSpan, profile config.SegmentationProfile) ([]plan, error) {
	if len(spans) == 0 {
		return nil, nil
	}

	maxChunkS := profile.MaxChunkS
	if maxChunkS <= 0 {
		maxChunkS = math.Inf(1)
	}

	// searchStartS gates when PlanChunks starts looking for a natural split
	// point at all: a chunk under ChunkSearchStartS long splits at a gap
	// only when the next span would push it past MaxChunkS, so chunks
	// aren't cut needlessly short. Once past it, the next sufficient gap is taken
	// immediately rather than only once MaxChunkS is about to be exceeded.
	searchStartS := profile.ChunkSearchStartS
	if searchStartS <= 0 || searchStartS > maxChunkS {
		searchStartS = math.Inf(1)
	}

	var plans []plan
	var current plan
	var currentDuration float64

	flush := func() {
		if len(current.spans) > 0 {
			plans = append(plans, current)
			current = plan{}
			currentDuration = 0
		}
	}

	for _, span := range spans {
		spanLen := (span.End - span.Start) + 2*boundaryMarginS
		if spanLen > maxChunkS {
			return nil, domainerr.NewUnsplittableSegment(span.Start, span.End, maxChunkS)
		}

		if len(current.spans) > 0 {
			wouldOverflow := currentDuration+spanLen > maxChunkS
			pastSearchStart := currentDuration >= searchStartS
			if wouldOverflow || pastSearchStart {
				gap := span.Start - current.spans[len(current.spans)-1].End
				if gap >= profile.MinGapForSplitS {
					flush()
				} else if wouldOverflow && spanLen > maxChunkS {
					return nil, domainerr.NewUnsplittableSegment(span.Start, span.End, maxChunkS)
				}
			}
		}

		current.spans = append(current.spans, span)
		currentDuration += spanLen
	}
	flush()

	return plans, nil
}

// Condense builds one WAV chunk file per plan emitted by PlanChunks. When
// outputPath is non-empty, splitting is disabled (as if MaxChunkS were
// infinite) and exactly one file is produced at that path.
func (c *Condenser) Condense(ctx context.Context, spans []SpeechSpan, audioPath string, profile config.SegmentationProfile, outputDir, outputPath string) ([]string, error) {
	effectiveProfile := profile
	if outputPath != "" {
		effectiveProfile.MaxChunkS = 0         // disables splitting in PlanChunks
		effectiveProfile.ChunkSearchStartS = 0 // disables the search-start gate too
	}

	plans, err := PlanChunks(spans, effectiveProfile)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}

	if outputPath != "" {
		if err := c.renderChunk(ctx, plans[0].spans, audioPath, outputPath); err != nil {
			return nil, err
		}
		return []string{outputPath}, nil
	}

	paths := make([]string, 0, len(plans))
	for i, p := range plans {
		chunkPath := filepath.Join(outputDir, fmt.Sprintf("condensed_part_%03d.wav", i+1))
		if err := c.renderChunk(ctx, p.spans, audioPath, chunkPath); err != nil {
			return nil, err
		}
		paths = append(paths, chunkPath)
	}
	return paths, nil
}

// renderChunk concatenates the given spans (each trimmed with
// ±boundaryMarginS) from audioPath into a single WAV at outPath using an
// ffmpeg filter_complex trim+concat graph.
func (c *Condenser) renderChunk(ctx context.Context, spans []SpeechSpan, audioPath, outPath string) error {
	var filter bytes.Buffer
	for i, s := range spans {
		start := math.Max(0, s.Start-boundaryMarginS)
		end := s.End + boundaryMarginS
		fmt.Fprintf(&filter, "[0:a]atrim=start=%g:end=%g,asetpts=PTS-STARTPTS[a%d];", start, end, i)
	}
	for i := range spans {
		fmt.Fprintf(&filter, "[a%d]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(spans))

	cmd := exec.CommandContext(ctx, c.FFmpegPath,
		"-i", audioPath,
		"-filter_complex", filter.String(),
		"-map", "[out]",
		"-ar", "16000",
		"-ac", "1",
		"-y", outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return domainerr.NewAudioProcessing(
			fmt.Sprintf("condenser failed to render chunk %s", outPath),
			filter.String(),
			err,
		)
	}
	return nil
}
