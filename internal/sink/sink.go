// Package sink implements the transcript-delivery plug-ins: Stdout, File,
// Clipboard, History, Refining, and Composite, each exposing HandleSegment (called as segments arrive) and Complete (called
// once at the end).
package sink

import "github.com/vociferous/vociferous/internal/pipeline"

// Sink receives segments as they arrive and the assembled result once.
type Sink interface {
	HandleSegment(seg pipeline.Segment)
	Complete(result pipeline.Result) error
}
