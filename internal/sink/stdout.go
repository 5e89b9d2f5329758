package sink

import (
	"fmt"
	"io"

	"github.com/vociferous/vociferous/internal/pipeline"
)

// Stdout writes each segment's text as it arrives, one line at a time.
type Stdout struct {
	Out io.Writer
}

func (s *Stdout) HandleSegment(seg pipeline.Segment) {
	fmt.Fprintln(s.Out, seg.Text)
}

func (s *Stdout) Complete(result pipeline.Result) error { return nil }
