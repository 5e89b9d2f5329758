package sink

import (
	"context"
	"fmt"

	"github.com/vociferous/vociferous/internal/pipeline"
	"github.com/vociferous/vociferous/internal/refine"
)

// Refining wraps an inner Sink so the final text is refined before being
// forwarded to it on Complete. HandleSegment passes through untouched; refinement only ever applies to the assembled result.
type Refining struct {
	Inner        Sink
	Refiner      refine.Refiner
	Instructions string
}

func (r *Refining) HandleSegment(seg pipeline.Segment) {
	r.Inner.HandleSegment(seg)
}

func (r *Refining) Complete(result pipeline.Result) error {
	if r.Refiner != nil && result.Text != "" {
		refined, err := r.Refiner.Refine(context.Background(), result.Text, r.Instructions)
		if err != nil {
			return fmt.Errorf("refining sink: %w", err)
		}
		result.Text = refined
		result.Refined = true
	}
	return r.Inner.Complete(result)
}
