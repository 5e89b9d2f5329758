// Package progress fans pipeline events out to a terminal renderer, a
// GUI/CLI callback, or nowhere, without the pipeline importing any of
// them.
package progress

import "strings"

// Tracker is the resource-scoped progress reporting surface the pipeline
// orchestrator drives. Implementations acquire on Open and release on
// Close.
type Tracker interface {
	AddStep(desc string, total float64) int
	Update(taskID int, desc string, completed float64)
	Advance(taskID int, amount float64)
	Complete(taskID int)
	Print(msg string, style string)
	Open()
	Close()
}

// Update is one callback-tracker event.
type Update struct {
	Stage       string
	Progress    float64
	HasProgress bool
	Message     string
	ElapsedS    float64
	RemainingS  float64
}

// stageKeywords is the ordered keyword-match table used to derive Stage
// from a step description.
var stageKeywords = []struct {
	stage    string
	keywords []string
}{
	{"decode", []string{"decod"}},
	{"preprocess", []string{"preprocess"}},
	{"vad", []string{"vad", "speech", "segment"}},
	{"transcribe", []string{"transcrib"}},
	{"refine", []string{"refin"}},
	{"condense", []string{"condens", "chunk", "split"}},
}

// deriveStage matches desc against stageKeywords in order, falling back to
// "processing".
func deriveStage(desc string) string {
	lower := strings.ToLower(desc)
	for _, entry := range stageKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.stage
			}
		}
	}
	return "processing"
}

// stripMarkup removes Rich-style "[color]...[/color]" markup for GUI
// consumption.
func stripMarkup(msg string) string {
	var out strings.Builder
	depth := 0
	for i := 0; i < len(msg); i++ {
		switch msg[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteByte(msg[i])
			}
		}
	}
	return out.String()
}
