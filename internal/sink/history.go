package sink

import (
	"path/filepath"
	"time"

	"github.com/vociferous/vociferous/internal/history"
	"github.com/vociferous/vociferous/internal/pipeline"
)

// History persists the whole result to a history.Store on Complete.
// SourcePath is recorded alongside the transcript so the backing store can
// report filename and file_path.
type History struct {
	Store      history.Store
	SourcePath string
}

func (h *History) HandleSegment(seg pipeline.Segment) {}

func (h *History) Complete(result pipeline.Result) error {
	if h.Store == nil {
		return nil
	}
	return h.Store.Append(history.Record{
		Filename:   filepath.Base(h.SourcePath),
		FilePath:   h.SourcePath,
		Transcript: result.Text,
		Engine:     result.Metadata.Engine,
		Language:   "",
		DurationS:  result.AudioDurationS,
		Refined:    result.Refined,
		CreatedAt:  time.Now(),
	})
}
