package sink

import (
	"errors"
	"fmt"

	"github.com/vociferous/vociferous/internal/pipeline"
)

// Composite fans segments and the final result out to every inner Sink, in
// order. A Complete failure from one inner sink is collected rather than aborting the remaining sinks, so a clipboard
// failure does not suppress a file write that already succeeded.
type Composite struct {
	Sinks []Sink
}

func (c *Composite) HandleSegment(seg pipeline.Segment) {
	for _, s := range c.Sinks {
		s.HandleSegment(seg)
	}
}

func (c *Composite) Complete(result pipeline.Result) error {
	var errs []error
	for _, s := range c.Sinks {
		if err := s.Complete(result); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("composite sink: %w", errors.Join(errs...))
}
