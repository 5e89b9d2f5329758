package sink

import (
	"fmt"
	"os"

	"github.com/vociferous/vociferous/internal/pipeline"
)

// File writes the final assembled text to Path on Complete; it ignores
// individual segments.
type File struct {
	Path string
}

func (f *File) HandleSegment(seg pipeline.Segment) {}

func (f *File) Complete(result pipeline.Result) error {
	if err := os.WriteFile(f.Path, []byte(result.Text), 0o644); err != nil {
		return fmt.Errorf("write transcript file %s: %w", f.Path, err)
	}
	return nil
}
