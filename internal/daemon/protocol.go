// Package daemon implements the warm-model daemon: a long-lived process
// that keeps one heavy transcription engine resident in memory and serves
// local clients over HTTP and over a newline-delimited JSON unix socket.
package daemon

import "github.com/vociferous/vociferous/internal/engine"

// Segment is the wire representation of one transcript segment. Each
// segment is annotated with the index (into the request's audio_paths) of
// the file it came from, so a client submitting more than one path in a
// single /transcribe call can recover per-file boundaries from the
// flattened segment list without resubmitting one path per request.
type Segment struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker,omitempty"`
	Language  string  `json:"language,omitempty"`
	FileIndex int     `json:"file_index"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Status          string  `json:"status"`
	ModelLoaded     bool    `json:"model_loaded"`
	ModelName       string  `json:"model_name"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	RequestsHandled uint64  `json:"requests_handled"`
}

// StatusResponse answers GET /status, a superset of HealthResponse.
type StatusResponse struct {
	Status          string  `json:"status"`
	ModelLoaded     bool    `json:"model_loaded"`
	ModelName       string  `json:"model_name"`
	Device          string  `json:"device"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	RequestsHandled uint64  `json:"requests_handled"`
}

// TranscribeRequest is the body of POST /transcribe.
type TranscribeRequest struct {
	AudioPaths   []string `json:"audio_paths"`
	Language     string   `json:"language,omitempty"`
	MaxNewTokens int      `json:"max_new_tokens,omitempty"`
	RequestID    string   `json:"request_id,omitempty"`
}

// TranscribeResponse is the body returned from POST /transcribe.
type TranscribeResponse struct {
	Success        bool      `json:"success"`
	Segments       []Segment `json:"segments,omitempty"`
	InferenceTimeS float64   `json:"inference_time_s,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// RefineRequest is the body of POST /refine.
type RefineRequest struct {
	Text         string `json:"text"`
	Instructions string `json:"instructions,omitempty"`
}

// RefineResponse is the body returned from POST /refine.
type RefineResponse struct {
	Success        bool    `json:"success"`
	RefinedText    string  `json:"refined_text,omitempty"`
	InferenceTimeS float64 `json:"inference_time_s,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// BatchTranscribeRequest is the body of POST /batch_transcribe.
type BatchTranscribeRequest struct {
	AudioPaths []string `json:"audio_paths"`
	Language   string   `json:"language,omitempty"`
}

// BatchFileResult is one per-file result inside a batch response.
type BatchFileResult struct {
	Segments       []Segment `json:"segments"`
	InferenceTimeS float64   `json:"inference_time_s"`
}

// BatchTranscribeResponse is the body returned from POST /batch_transcribe.
type BatchTranscribeResponse struct {
	Success bool              `json:"success"`
	Results []BatchFileResult `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ShutdownResponse is the body returned from POST /shutdown.
type ShutdownResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SocketRequest is one command sent over the unix-domain socket variant of
// the protocol. Type discriminates the payload the same way the HTTP paths
// do: "transcribe", "status", or "shutdown".
type SocketRequest struct {
	Type         string   `json:"type"`
	AudioPaths   []string `json:"audio_paths,omitempty"`
	Language     string   `json:"language,omitempty"`
	MaxNewTokens int      `json:"max_new_tokens,omitempty"`
	Text         string   `json:"text,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

// SocketResponse is the normalized command outcome returned over the
// unix-domain socket.
type SocketResponse struct {
	Success        bool      `json:"success"`
	Segments       []Segment `json:"segments,omitempty"`
	RefinedText    string    `json:"refined_text,omitempty"`
	InferenceTimeS float64   `json:"inference_time_s,omitempty"`
	Status         string    `json:"status,omitempty"`
	ModelLoaded    bool      `json:"model_loaded,omitempty"`
	Error          string    `json:"error,omitempty"`
}

func segmentsFromEngine(in []engine.TranscriptSegment) []Segment {
	out := make([]Segment, len(in))
	for i, s := range in {
		out[i] = Segment{Start: s.Start, End: s.End, Text: s.Text(), Speaker: s.Speaker, Language: s.Language, FileIndex: s.ID}
	}
	return out
}

func segmentsToEngine(in []Segment) []engine.TranscriptSegment {
	out := make([]engine.TranscriptSegment, len(in))
	for i, s := range in {
		out[i] = engine.TranscriptSegment{ID: s.FileIndex, Start: s.Start, End: s.End, RawText: s.Text, Speaker: s.Speaker, Language: s.Language}
	}
	return out
}
