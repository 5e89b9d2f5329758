package refine

import "strings"

// assistantMarkers are the chat-template role markers a local LLM's raw
// completion may still carry; Extract strips everything up to and including
// the last one.
var assistantMarkers = []string{
	"<|assistant|>",
	"<|im_start|>assistant",
	"[/INST]",
	"### Response:",
}

var roleMarkers = []string{
	"<|im_end|>",
	"<|im_start|>",
	"<|user|>",
	"<|system|>",
	"<|end|>",
	"</s>",
}

const minExtractedLen = 20

// Extract pulls the model's reply out of a raw chat-completion, stripping
// everything before the last assistant marker, any <think>...</think> block,
// and role/end markers. If the result is shorter than minExtractedLen (20)
// characters or still contains a
// fragment of prompt (the actual instruction text sent to the model for
// this call, built-in or caller-supplied), original is returned unchanged
// so a malformed completion never destroys the source transcript.
func Extract(raw string, prompt string, original string) string {
	text := raw

	lastIdx := -1
	lastMarkerLen := 0
	for _, marker := range assistantMarkers {
		if idx := strings.LastIndex(text, marker); idx > lastIdx {
			lastIdx = idx
			lastMarkerLen = len(marker)
		}
	}
	if lastIdx >= 0 {
		text = text[lastIdx+lastMarkerLen:]
	}

	text = stripThinkBlocks(text)

	for _, marker := range roleMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}

	text = strings.TrimSpace(text)

	if len(text) < minExtractedLen {
		return original
	}
	if promptLeaked(text, prompt) {
		return original
	}
	return text
}

func stripThinkBlocks(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], "</think>")
		if end < 0 {
			return s[:start]
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
}

const minPromptFragmentLen = 15

// promptLeaked reports whether text still contains a recognizable fragment
// of prompt, the actual instruction text sent to the model for this call,
// rather than a genuine reply. Checking the resolved prompt itself (instead
// of a fixed list of built-in phrases) means a caller-supplied
// refine_instructions string is covered the same way the built-in
// grammar_only/summary/bullet_points templates are.
func promptLeaked(text string, prompt string) bool {
	lower := strings.ToLower(text)
	for _, fragment := range promptFragments(prompt) {
		if len(fragment) >= minPromptFragmentLen && strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// promptFragments splits prompt into lowercase sentence-sized chunks: the
// whole prompt first (catches a short custom instruction echoed verbatim),
// then each clause split on sentence/clause punctuation (catches a long
// built-in template of which only part was echoed back).
func promptFragments(prompt string) []string {
	lower := strings.ToLower(strings.TrimSpace(prompt))
	if lower == "" {
		return nil
	}
	fragments := []string{lower}
	for _, clause := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == '.' || r == ',' || r == '\n'
	}) {
		if f := strings.TrimSpace(clause); f != "" {
			fragments = append(fragments, f)
		}
	}
	return fragments
}
