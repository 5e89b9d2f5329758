package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	addr := strings.TrimPrefix(server.URL, "http://")
	return NewClient(addr, time.Second, time.Second), server
}

func TestManagerIsRunningTrueWhenHealthResponds(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(HealthResponse{ModelLoaded: true})
	}))
	defer server.Close()

	m := NewManager(client, "unused", nil, nil)
	require.True(t, m.IsRunning(context.Background()))
}

func TestManagerIsRunningFalseWhenNothingListening(t *testing.T) {
	client := NewClient("127.0.0.1:1", 50*time.Millisecond, 50*time.Millisecond)
	m := NewManager(client, "unused", nil, nil)
	require.False(t, m.IsRunning(context.Background()))
}

func TestManagerEnsureRunningShortCircuitsWhenAlreadyRunning(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(HealthResponse{ModelLoaded: true})
	}))
	defer server.Close()

	m := NewManager(client, "unused", nil, nil)
	ran, err := m.EnsureRunning(context.Background(), false, nil)
	require.NoError(t, err)
	require.True(t, ran)
}

func TestManagerEnsureRunningReturnsFalseWithoutAutoStart(t *testing.T) {
	client := NewClient("127.0.0.1:1", 50*time.Millisecond, 50*time.Millisecond)
	m := NewManager(client, "unused", nil, nil)

	ran, err := m.EnsureRunning(context.Background(), false, nil)
	require.NoError(t, err)
	require.False(t, ran)
}

func TestManagerStopNoOpWhenNoPIDFile(t *testing.T) {
	client := NewClient("127.0.0.1:1", time.Second, time.Second)
	m := NewManager(client, "unused", nil, nil)
	m.PIDPath = filepath.Join(t.TempDir(), "daemon.pid")

	require.NoError(t, m.Stop(time.Second))
}

func TestManagerStopRemovesPIDFileWhenProcessAlreadyDead(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	client := NewClient("127.0.0.1:1", time.Second, time.Second)
	m := NewManager(client, "unused", nil, nil)
	m.PIDPath = filepath.Join(t.TempDir(), "daemon.pid")
	require.NoError(t, WritePID(m.PIDPath, cmd.Process.Pid))

	require.NoError(t, m.Stop(time.Second))

	_, ok, err := ReadPID(m.PIDPath)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestManagerStartSyncWritesPIDAndTimesOutWhenDaemonNeverBecomesReady(t *testing.T) {
	sleepPath, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}

	client := NewClient("127.0.0.1:1", 50*time.Millisecond, 50*time.Millisecond)
	m := NewManager(client, sleepPath, []string{"5"}, nil)
	m.PIDPath = filepath.Join(t.TempDir(), "daemon.pid")
	m.LogPath = filepath.Join(t.TempDir(), "daemon.log")

	_, err = m.StartSync(context.Background(), 200*time.Millisecond, nil)
	require.Error(t, err)

	_, ok, readErr := ReadPID(m.PIDPath)
	require.NoError(t, readErr)
	require.False(t, ok, "pid file should be cleaned up after a failed start")
}

func TestManagerStartSyncReportsProgressWhileWaiting(t *testing.T) {
	sleepPath, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}

	client := NewClient("127.0.0.1:1", 50*time.Millisecond, 50*time.Millisecond)
	m := NewManager(client, sleepPath, []string{"5"}, nil)
	m.PIDPath = filepath.Join(t.TempDir(), "daemon.pid")
	m.LogPath = filepath.Join(t.TempDir(), "daemon.log")
	m.NominalLoadTime = 100 * time.Millisecond

	var updates int
	progress := progressFunc(func(fraction float64, message string) { updates++ })

	_, _ = m.StartSync(context.Background(), 300*time.Millisecond, progress)
	require.Greater(t, updates, 0)
}

func TestAsyncStartupResultWaitTimesOutWithoutCompleting(t *testing.T) {
	r := newAsyncStartupResult()
	require.False(t, r.Wait(10*time.Millisecond))
	require.False(t, r.IsComplete())
}

func TestAsyncStartupResultFinishUnblocksWait(t *testing.T) {
	r := newAsyncStartupResult()
	go r.finish(123, nil)

	require.True(t, r.Wait(time.Second))
	require.True(t, r.IsComplete())
	require.True(t, r.Success())
	require.Equal(t, 123, r.PID())
	require.NoError(t, r.Err())
}

func TestAsyncStartupResultFinishWithErrorReportsFailure(t *testing.T) {
	r := newAsyncStartupResult()
	wantErr := context.DeadlineExceeded
	r.finish(0, wantErr)

	require.True(t, r.IsComplete())
	require.False(t, r.Success())
	require.ErrorIs(t, r.Err(), wantErr)
}

func TestManagerStartAsyncSurfacesStartSyncFailure(t *testing.T) {
	sleepPath, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}

	client := NewClient("127.0.0.1:1", 50*time.Millisecond, 50*time.Millisecond)
	m := NewManager(client, sleepPath, []string{"5"}, nil)
	m.PIDPath = filepath.Join(t.TempDir(), "daemon.pid")
	m.LogPath = filepath.Join(t.TempDir(), "daemon.log")

	result := m.StartAsync(context.Background(), 150*time.Millisecond, nil)
	require.True(t, result.Wait(2*time.Second))
	require.False(t, result.Success())
	require.Error(t, result.Err())
}
