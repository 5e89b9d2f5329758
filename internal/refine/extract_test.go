package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vociferous/vociferous/internal/config"
)

func TestExtractStripsAssistantMarkerAndThinkBlock(t *testing.T) {
	raw := "<think>let me consider this</think><|assistant|>This is the corrected transcript with enough words to pass the length check."
	got := Extract(raw, "unrelated instructions", "original fallback text")
	assert.Equal(t, "This is the corrected transcript with enough words to pass the length check.", got)
}

func TestExtractFallsBackWhenTooShort(t *testing.T) {
	original := "some original transcript text that is long enough"
	got := Extract("<|assistant|>ok", "unrelated instructions", original)
	assert.Equal(t, original, got)
}

func TestExtractFallsBackOnPromptLeakage(t *testing.T) {
	original := "some original transcript text that is long enough"
	prompt := promptFor(config.RefineGrammarOnly, "")
	raw := "Fix grammar, punctuation, and capitalization in the following transcript, please."
	got := Extract(raw, prompt, original)
	assert.Equal(t, original, got)
}

func TestExtractFallsBackOnCustomInstructionsLeakage(t *testing.T) {
	original := "some original transcript text that is long enough"
	instructions := "Rewrite this call transcript as a concise executive summary for the team."
	raw := instructions + " Here you go."
	got := Extract(raw, instructions, original)
	assert.Equal(t, original, got)
}

func TestExtractStripsRoleMarkers(t *testing.T) {
	raw := "<|im_start|>assistantHere is the cleaned up version of the transcript text.<|im_end|>"
	got := Extract(raw, "unrelated instructions", "fallback")
	assert.Contains(t, got, "Here is the cleaned up version")
	assert.NotContains(t, got, "<|im_end|>")
}

func TestExtractNoMarkerReturnsTrimmedWhenLongEnough(t *testing.T) {
	raw := "  This transcript has no chat markers at all but is plenty long.  "
	got := Extract(raw, "unrelated instructions", "fallback")
	assert.Equal(t, "This transcript has no chat markers at all but is plenty long.", got)
}
