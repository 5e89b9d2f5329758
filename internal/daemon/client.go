package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vociferous/vociferous/internal/domainerr"
	"github.com/vociferous/vociferous/internal/engine"
)

// Client talks to a running warm-model daemon over its HTTP surface.
// Timeouts are per-call so a slow /transcribe never starves a concurrent
// /ping.
type Client struct {
	Addr              string
	HTTPClient        *http.Client
	PingTimeout       time.Duration
	TranscribeTimeout time.Duration
}

// NewClient builds a Client against a daemon listening on addr
// ("host:port", no scheme).
func NewClient(addr string, pingTimeout, transcribeTimeout time.Duration) *Client {
	return &Client{
		Addr:              addr,
		HTTPClient:        &http.Client{},
		PingTimeout:       pingTimeout,
		TranscribeTimeout: transcribeTimeout,
	}
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("http://%s%s", c.Addr, path)
}

// Ping reports whether the daemon answers /health at all, regardless of
// model-load state.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.Health(ctx)
	return err == nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.getJSON(ctx, "/health", c.PingTimeout, &out)
	return out, err
}

// Status calls GET /status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := c.getJSON(ctx, "/status", c.PingTimeout, &out)
	return out, err
}

// ModelLoaded satisfies engine.DaemonFrontend: a cheap health probe used by
// EngineWorker to decide whether to attempt the daemon fast-path.
func (c *Client) ModelLoaded(ctx context.Context) (bool, error) {
	health, err := c.Health(ctx)
	if err != nil {
		return false, err
	}
	return health.ModelLoaded, nil
}

// TranscribeBatch calls POST /transcribe with the given paths, satisfying
// engine.DaemonFrontend. The daemon flattens results into a single segment
// list annotated with Segment.FileIndex; EngineWorker treats the whole
// batch as one logical result, but the file_index annotation survives the
// round trip (segmentsToEngine copies it into TranscriptSegment.ID) for
// any caller that wants to recover per-file boundaries without resubmitting
// one path per request.
func (c *Client) TranscribeBatch(ctx context.Context, paths []string, language string) ([]engine.TranscriptSegment, error) {
	req := TranscribeRequest{AudioPaths: paths, Language: language}
	var resp TranscribeResponse
	if err := c.postJSON(ctx, "/transcribe", c.TranscribeTimeout, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, domainerr.New(domainerr.KindEngine, resp.Error)
	}
	return segmentsToEngine(resp.Segments), nil
}

// Refine calls POST /refine, satisfying engine.DaemonFrontend.
func (c *Client) Refine(ctx context.Context, text, instructions string) (string, error) {
	req := RefineRequest{Text: text, Instructions: instructions}
	var resp RefineResponse
	if err := c.postJSON(ctx, "/refine", c.TranscribeTimeout, req, &resp); err != nil {
		return text, err
	}
	if !resp.Success {
		return text, domainerr.NewRefinement(resp.Error)
	}
	return resp.RefinedText, nil
}

// Shutdown calls POST /shutdown, beginning the daemon's drain sequence.
func (c *Client) Shutdown(ctx context.Context) (ShutdownResponse, error) {
	var resp ShutdownResponse
	err := c.postJSON(ctx, "/shutdown", c.PingTimeout, struct{}{}, &resp)
	return resp, err
}

func (c *Client) getJSON(ctx context.Context, path string, timeout time.Duration, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}
	return c.do(httpReq, out)
}

func (c *Client) postJSON(ctx context.Context, path string, timeout time.Duration, body, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url(path), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq, out)
}

func (c *Client) do(httpReq *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if httpReq.Context().Err() != nil {
			return domainerr.NewDaemonTimeout(httpReq.URL.Path, err)
		}
		return domainerr.NewDaemonNotRunning(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return domainerr.New(domainerr.KindDaemonNotRunning, fmt.Sprintf("daemon returned %d", resp.StatusCode))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// --- Unix-socket variant ---

// SocketSend performs one newline-delimited JSON request/response roundtrip
// against the unix-socket protocol variant.
func SocketSend(ctx context.Context, path string, req SocketRequest, timeout time.Duration) (SocketResponse, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return SocketResponse{}, domainerr.NewDaemonNotRunning(err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return SocketResponse{}, err
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return SocketResponse{}, fmt.Errorf("encode socket request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return SocketResponse{}, domainerr.NewDaemonTimeout("socket", err)
	}

	var resp SocketResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return SocketResponse{}, fmt.Errorf("decode socket response: %w", err)
	}
	return resp, nil
}

// ProbeSocket checks whether a responsive daemon is listening on path by
// sending a status request.
func ProbeSocket(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	resp, err := SocketSend(ctx, path, SocketRequest{Type: "status"}, timeout)
	if err == nil {
		return true, nil
	}
	if domainErr, ok := err.(*domainerr.Error); ok && domainErr.Kind == domainerr.KindDaemonNotRunning {
		return false, nil
	}
	_ = resp
	return false, err
}
