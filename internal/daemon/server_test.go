package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vociferous/vociferous/internal/config"
	"github.com/vociferous/vociferous/internal/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeServerEngine struct {
	batch   [][]engine.TranscriptSegment
	refined string
	err     error
}

func (f *fakeServerEngine) TranscribeFile(path string, opts engine.Options) ([]engine.TranscriptSegment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []engine.TranscriptSegment{{RawText: "segment for " + path}}, nil
}

func (f *fakeServerEngine) Metadata() engine.Metadata { return engine.Metadata{Engine: "fake"} }

func (f *fakeServerEngine) TranscribeBatch(paths []string, opts engine.Options) ([][]engine.TranscriptSegment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

func (f *fakeServerEngine) RefineText(text string, instructions string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.refined, nil
}

func newTestServer(t *testing.T, eng engine.Engine) *Server {
	t.Helper()
	s := NewServer(config.Config{Engine: config.EngineConfig{ModelName: "turbo"}}, nil, discardLogger())
	s.eng = eng
	go s.runJobQueue()
	t.Cleanup(func() { close(s.jobs) })
	return s
}

func TestServerHealthReflectsModelLoadedState(t *testing.T) {
	s := NewServer(config.Config{Engine: config.EngineConfig{ModelName: "turbo"}}, nil, discardLogger())
	require.False(t, s.health().ModelLoaded)
	require.Equal(t, "starting", s.health().Status)

	s.eng = &fakeServerEngine{}
	require.True(t, s.health().ModelLoaded)
	require.Equal(t, "ready", s.health().Status)
}

func TestServerTranscribeRejectsEmptyPaths(t *testing.T) {
	s := newTestServer(t, &fakeServerEngine{})
	resp := s.transcribe(nil, "en", 0)
	require.False(t, resp.Success)
}

func TestServerTranscribeReturnsErrorWhenModelNotLoaded(t *testing.T) {
	s := NewServer(config.Config{}, nil, discardLogger())
	go s.runJobQueue()
	t.Cleanup(func() { close(s.jobs) })

	resp := s.transcribe([]string{"a.wav"}, "en", 0)
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "not loaded")
}

func TestServerTranscribeUsesBatchCapabilityAndAnnotatesFileIndex(t *testing.T) {
	eng := &fakeServerEngine{batch: [][]engine.TranscriptSegment{
		{{RawText: "first"}},
		{{RawText: "second"}},
	}}
	s := newTestServer(t, eng)

	resp := s.transcribe([]string{"a.wav", "b.wav"}, "en", 0)
	require.True(t, resp.Success)
	require.Len(t, resp.Segments, 2)
	require.Equal(t, 0, resp.Segments[0].FileIndex)
	require.Equal(t, 1, resp.Segments[1].FileIndex)
}

func TestServerRefineRejectsEmptyText(t *testing.T) {
	s := newTestServer(t, &fakeServerEngine{})
	resp := s.refine("", "instructions")
	require.False(t, resp.Success)
}

func TestServerRefineFailsWhenEngineLacksTextRefiner(t *testing.T) {
	s := newTestServer(t, noRefineEngine{})
	resp := s.refine("text", "instructions")
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "does not support")
}

type noRefineEngine struct{}

func (noRefineEngine) TranscribeFile(path string, opts engine.Options) ([]engine.TranscriptSegment, error) {
	return nil, nil
}
func (noRefineEngine) Metadata() engine.Metadata { return engine.Metadata{} }

func TestServerRefineSucceeds(t *testing.T) {
	s := newTestServer(t, &fakeServerEngine{refined: "refined text"})
	resp := s.refine("raw text", "instructions")
	require.True(t, resp.Success)
	require.Equal(t, "refined text", resp.RefinedText)
}

func TestServerHandleSocketDispatchesByType(t *testing.T) {
	s := newTestServer(t, &fakeServerEngine{batch: [][]engine.TranscriptSegment{{{RawText: "hi"}}}})

	statusResp := s.HandleSocket(context.Background(), SocketRequest{Type: "status"})
	require.True(t, statusResp.Success)

	transcribeResp := s.HandleSocket(context.Background(), SocketRequest{Type: "transcribe", AudioPaths: []string{"a.wav"}})
	require.True(t, transcribeResp.Success)
	require.Len(t, transcribeResp.Segments, 1)

	unknownResp := s.HandleSocket(context.Background(), SocketRequest{Type: "bogus"})
	require.False(t, unknownResp.Success)
}

func TestServerHTTPRoutesHealthAndTranscribe(t *testing.T) {
	s := newTestServer(t, &fakeServerEngine{batch: [][]engine.TranscriptSegment{{{RawText: "hi"}}}})
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	healthResp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer healthResp.Body.Close()
	var health HealthResponse
	require.NoError(t, json.NewDecoder(healthResp.Body).Decode(&health))
	require.True(t, health.ModelLoaded)

	body, _ := json.Marshal(TranscribeRequest{AudioPaths: []string{"a.wav"}})
	transcribeResp, err := http.Post(server.URL+"/transcribe", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer transcribeResp.Body.Close()
	var tr TranscribeResponse
	require.NoError(t, json.NewDecoder(transcribeResp.Body).Decode(&tr))
	require.True(t, tr.Success)
}
