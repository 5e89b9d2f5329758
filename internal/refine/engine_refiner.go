package refine

import (
	"context"
	"fmt"

	"github.com/vociferous/vociferous/internal/config"
)

// TextGenerator is the narrow capability an engine.Worker exposes for
// refinement; defined here rather than imported
// to keep this package decoupled from internal/engine, mirroring the
// DaemonFrontend seam in internal/engine/worker.go.
type TextGenerator interface {
	RefineText(ctx context.Context, text string, instructions string) (string, error)
}

// EngineRefiner delegates to a TextGenerator (normally an *engine.Worker),
// building the instruction prompt for the configured mode and running the
// raw completion through Extract before handing it back.
type EngineRefiner struct {
	gen  TextGenerator
	mode config.RefineMode
}

// NewEngineRefiner constructs a Refiner backed by gen for the given mode.
func NewEngineRefiner(gen TextGenerator, mode config.RefineMode) *EngineRefiner {
	return &EngineRefiner{gen: gen, mode: mode}
}

func (r *EngineRefiner) Refine(ctx context.Context, text string, instructions string) (string, error) {
	prompt := promptFor(r.mode, instructions)
	raw, err := r.gen.RefineText(ctx, text, prompt)
	if err != nil {
		return "", fmt.Errorf("refine: %w", err)
	}
	return Extract(raw, prompt, text), nil
}
