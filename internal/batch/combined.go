package batch

import (
	"fmt"
	"os"
	"strings"
)

// GenerateCombinedTranscript concatenates successful transcripts in input
// order, each optionally prefixed by "# <filename>", joined strictly by
// separator with no trailing separator or newline after the final entry.
func GenerateCombinedTranscript(results []Result, output string, includeFilenames bool, separator string) error {
	var entries []string
	for _, r := range results {
		if !r.Success {
			continue
		}
		text := strings.TrimSpace(r.TranscriptText)
		if includeFilenames {
			entries = append(entries, fmt.Sprintf("# %s\n%s", r.SourceFile, text))
		} else {
			entries = append(entries, text)
		}
	}
	combined := strings.Join(entries, separator)
	return os.WriteFile(output, []byte(combined), 0o644)
}
