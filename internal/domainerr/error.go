// Package domainerr provides the typed error taxonomy shared across the
// transcription pipeline: a single error shape carrying a kind, a free-form
// context map, actionable suggestions, and an optional cause.
package domainerr

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies which stage of the pipeline raised an error.
type Kind string

const (
	KindAudioDecode         Kind = "AudioDecode"
	KindAudioProcessing     Kind = "AudioProcessing"
	KindVAD                 Kind = "VAD"
	KindUnsplittableSegment Kind = "UnsplittableSegment"
	KindEngine              Kind = "Engine"
	KindRefinement          Kind = "Refinement"
	KindTranscription       Kind = "Transcription"
	KindConfiguration       Kind = "Configuration"
	KindDependency          Kind = "Dependency"
	KindDaemonNotRunning    Kind = "DaemonNotRunning"
	KindDaemonTimeout       Kind = "DaemonTimeout"
	KindDaemonStart         Kind = "DaemonStart"
)

// Error is the common base every domain error derives from.
type Error struct {
	Kind        Kind
	Message     string
	Context     map[string]any
	Suggestions []string
	Cause       error
	Timestamp   time.Time
}

// New builds a domain error of the given kind with an empty context map.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Context:   map[string]any{},
		Timestamp: time.Now(),
	}
}

// WithContext attaches a key/value pair to the error's context map and
// returns the same error for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

// WithSuggestion appends an actionable suggestion and returns the same error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestions = append(e.Suggestions, s)
	return e
}

// WithCause attaches an underlying error and returns the same error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ToDict serializes the error to the fixed-shape dictionary used by CLI and
// GUI error presentation.
func (e *Error) ToDict() map[string]any {
	d := map[string]any{
		"error_type":  string(e.Kind),
		"message":     e.Message,
		"context":     e.Context,
		"suggestions": e.Suggestions,
		"timestamp":   e.Timestamp.UTC().Format(time.RFC3339),
	}
	if e.Cause != nil {
		d["cause"] = e.Cause.Error()
	}
	return d
}

// MarshalJSON implements json.Marshaler using the same fixed shape as ToDict.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToDict())
}

// FromDict reconstructs an Error from its serialized dictionary form. The
// cause, if present, is rebuilt as a plain error carrying only its message.
func FromDict(d map[string]any) *Error {
	e := &Error{
		Kind:    Kind(stringField(d, "error_type")),
		Message: stringField(d, "message"),
	}
	if ctx, ok := d["context"].(map[string]any); ok {
		e.Context = ctx
	} else {
		e.Context = map[string]any{}
	}
	if suggestions, ok := d["suggestions"].([]string); ok {
		e.Suggestions = suggestions
	} else if raw, ok := d["suggestions"].([]any); ok {
		for _, s := range raw {
			if str, ok := s.(string); ok {
				e.Suggestions = append(e.Suggestions, str)
			}
		}
	}
	if ts := stringField(d, "timestamp"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			e.Timestamp = parsed
		}
	}
	if cause := stringField(d, "cause"); cause != "" {
		e.Cause = fmt.Errorf("%s", cause)
	}
	return e
}

func stringField(d map[string]any, key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// TitleCase formats a Kind like "AudioDecode" as "Audio Decode Error", for
// GUI dialog titles. A run of capitals such as "VAD" stays one word.
func TitleCase(kind Kind) string {
	var out []rune
	runes := []rune(string(kind))
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prev < 'A' || prev > 'Z' || nextLower {
				out = append(out, ' ')
			}
		}
		out = append(out, r)
	}
	return string(out) + " Error"
}
