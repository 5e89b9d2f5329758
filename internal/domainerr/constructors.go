package domainerr

import "strings"

// NewAudioDecode builds an AudioDecode error with suggestions derived from
// transcoder stderr keywords.
func NewAudioDecode(message string, exitCode int, stderr string) *Error {
	e := New(KindAudioDecode, message).
		WithContext("ffmpeg_exit_code", exitCode).
		WithContext("stderr", stderr)
	for _, rule := range []struct {
		keyword    string
		suggestion string
	}{
		{"Invalid data", "file may be corrupted"},
		{"Permission denied", "check permissions"},
		{"No such file", "path does not exist"},
	} {
		if strings.Contains(stderr, rule.keyword) {
			e.WithSuggestion(rule.suggestion)
		}
	}
	return e
}

// NewAudioProcessing builds an AudioProcessing error carrying the attempted
// filter chain.
func NewAudioProcessing(message string, filterChain string, cause error) *Error {
	return New(KindAudioProcessing, message).
		WithContext("filter_chain", filterChain).
		WithCause(cause)
}

// NewNoSpeech builds the VAD{no_speech} error raised when detection yields
// an empty span list.
func NewNoSpeech() *Error {
	return New(KindVAD, "no speech detected").
		WithContext("reason", "no_speech").
		WithSuggestion("check that the input actually contains speech").
		WithSuggestion("try lowering the VAD threshold")
}

// NewUnsplittableSegment builds the error raised when a single speech span
// exceeds max_chunk_s with no legal split point.
func NewUnsplittableSegment(start, end, maxAllowed float64) *Error {
	return New(KindUnsplittableSegment, "speech span exceeds max_chunk_s with no legal split point").
		WithContext("start", start).
		WithContext("end", end).
		WithContext("max_allowed", maxAllowed).
		WithSuggestion("increase max_chunk_s or min_gap_for_split_s")
}

// NewEngine builds an Engine error for model load or inference failures.
func NewEngine(message string, cause error) *Error {
	return New(KindEngine, message).WithCause(cause)
}

// NewRefinement builds a Refinement error for refiner output that failed
// validation.
func NewRefinement(message string) *Error {
	return New(KindRefinement, message)
}

// NewTranscription builds a Transcription error for a specific file's
// inference failure.
func NewTranscription(message string, sourceFile string, cause error) *Error {
	return New(KindTranscription, message).
		WithContext("source_file", sourceFile).
		WithCause(cause)
}

// NewConfiguration builds a Configuration error for unknown profiles,
// presets, or unsupported engine kinds.
func NewConfiguration(message string) *Error {
	return New(KindConfiguration, message)
}

// NewDependency builds a Dependency error for missing external binaries or
// runtimes.
func NewDependency(missing string) *Error {
	return New(KindDependency, "required dependency is missing").
		WithContext("missing", missing).
		WithSuggestion("install " + missing + " and ensure it is on PATH")
}

// NewDaemonNotRunning builds the error raised when a client cannot connect
// to the daemon.
func NewDaemonNotRunning(cause error) *Error {
	return New(KindDaemonNotRunning, "daemon is not running").WithCause(cause)
}

// NewDaemonTimeout builds the error raised when a daemon call's deadline
// elapses.
func NewDaemonTimeout(operation string, cause error) *Error {
	return New(KindDaemonTimeout, "daemon request timed out").
		WithContext("operation", operation).
		WithCause(cause)
}

// NewDaemonStart builds the error raised when the daemon fails to reach the
// ready state within its startup timeout.
func NewDaemonStart(logExcerpt string, cause error) *Error {
	return New(KindDaemonStart, "daemon failed to start").
		WithContext("log_excerpt", logExcerpt).
		WithCause(cause)
}
