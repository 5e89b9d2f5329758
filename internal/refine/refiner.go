// Package refine implements the optional second-pass text transformation:
// grammar correction, summarization, or bullet restructuring, delegated to
// an engine's LLM mode when available.
package refine

import (
	"context"

	"github.com/vociferous/vociferous/internal/config"
)

// Segment is the narrow view of a transcript segment this package needs,
// decoupled from internal/engine to keep this package import-light.
type Segment struct {
	Text string
}

// Refiner rewrites the assembled transcript text as a whole.
type Refiner interface {
	Refine(ctx context.Context, text string, instructions string) (string, error)
}

// promptFor resolves the prompt text for a built-in mode, used both to
// drive a refine call and to detect prompt-leakage in Extract.
func promptFor(mode config.RefineMode, instructions string) string {
	if instructions != "" {
		return instructions
	}
	switch mode {
	case config.RefineSummary:
		return "Summarize the following transcript concisely, preserving the key points."
	case config.RefineBulletPoints:
		return "Restructure the following transcript into clear, well-organized bullet points."
	default:
		return "Fix grammar, punctuation, and capitalization in the following transcript. Remove filler words. Preserve the original meaning and do not add new content."
	}
}
