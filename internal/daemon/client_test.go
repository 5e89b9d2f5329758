package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientHealthAndPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", ModelLoaded: true, ModelName: "turbo"})
	}))
	defer server.Close()

	client := NewClient(strings.TrimPrefix(server.URL, "http://"), time.Second, time.Second)
	require.True(t, client.Ping(context.Background()))

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	require.True(t, health.ModelLoaded)
	require.Equal(t, "turbo", health.ModelName)
}

func TestClientModelLoadedReflectsHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(HealthResponse{ModelLoaded: false})
	}))
	defer server.Close()

	client := NewClient(strings.TrimPrefix(server.URL, "http://"), time.Second, time.Second)
	loaded, err := client.ModelLoaded(context.Background())
	require.NoError(t, err)
	require.False(t, loaded)
}

func TestClientPingFalseWhenNothingListening(t *testing.T) {
	client := NewClient("127.0.0.1:1", 50*time.Millisecond, 50*time.Millisecond)
	require.False(t, client.Ping(context.Background()))
}

func TestClientTranscribeBatchReturnsFileIndexedSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transcribe", r.URL.Path)
		var req TranscribeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"a.wav", "b.wav"}, req.AudioPaths)

		_ = json.NewEncoder(w).Encode(TranscribeResponse{
			Success: true,
			Segments: []Segment{
				{Text: "first file", FileIndex: 0},
				{Text: "second file", FileIndex: 1},
			},
		})
	}))
	defer server.Close()

	client := NewClient(strings.TrimPrefix(server.URL, "http://"), time.Second, time.Second)
	segments, err := client.TranscribeBatch(context.Background(), []string{"a.wav", "b.wav"}, "en")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	require.Equal(t, 0, segments[0].ID)
	require.Equal(t, 1, segments[1].ID)
}

func TestClientTranscribeBatchReturnsErrorOnFailureResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TranscribeResponse{Success: false, Error: "model not loaded"})
	}))
	defer server.Close()

	client := NewClient(strings.TrimPrefix(server.URL, "http://"), time.Second, time.Second)
	_, err := client.TranscribeBatch(context.Background(), []string{"a.wav"}, "en")
	require.Error(t, err)
	require.Contains(t, err.Error(), "model not loaded")
}

func TestClientRefineReturnsOriginalTextOnTransportError(t *testing.T) {
	client := NewClient("127.0.0.1:1", 50*time.Millisecond, 50*time.Millisecond)
	got, err := client.Refine(context.Background(), "original", "instructions")
	require.Error(t, err)
	require.Equal(t, "original", got)
}

func TestClientShutdownCallsExpectedEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shutdown", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ShutdownResponse{Success: true, Message: "draining"})
	}))
	defer server.Close()

	client := NewClient(strings.TrimPrefix(server.URL, "http://"), time.Second, time.Second)
	resp, err := client.Shutdown(context.Background())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "draining", resp.Message)
}

func TestClientDoTreats5xxAsDaemonNotRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(strings.TrimPrefix(server.URL, "http://"), time.Second, time.Second)
	_, err := client.Health(context.Background())
	require.Error(t, err)
}
