package doctor

import (
	"context"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vociferous/vociferous/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	require.Equal(t, 1, report.FailureCount())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-bin")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-bin", "--arg"}, "clipboard_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "clipboard_cmd command is available")
}

func TestCheckVADModelFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "silero_vad.onnx"), []byte("fake"), 0o644))

	cfg := config.Default()
	cfg.Engine.ModelCacheDir = dir

	check := checkVADModel(cfg)
	require.True(t, check.Pass)
}

func TestCheckVADModelMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.ModelCacheDir = t.TempDir()

	check := checkVADModel(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "not found")
}

func TestCheckDaemonReachableSkipsWhenModeOff(t *testing.T) {
	cfg := config.Default()
	cfg.Daemon.Mode = config.DaemonModeOff

	check := checkDaemonReachable(context.Background(), cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "off")
}

func TestCheckDaemonReachableSucceeds(t *testing.T) {
	server := httptest.NewServer(nil)
	t.Cleanup(server.Close)

	_, port, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Daemon.Mode = config.DaemonModeAuto
	cfg.Daemon.HTTPAddr = "127.0.0.1:" + port

	check := checkDaemonReachable(context.Background(), cfg)
	require.True(t, check.Pass)
}

func TestCheckDaemonReachableFailsWhenNothingListening(t *testing.T) {
	cfg := config.Default()
	cfg.Daemon.Mode = config.DaemonModeAuto
	cfg.Daemon.HTTPAddr = "127.0.0.1:1"

	check := checkDaemonReachable(context.Background(), cfg)
	require.False(t, check.Pass)
}

func TestConfigValidCheckPasses(t *testing.T) {
	check := checkConfigValid(config.Default())
	require.True(t, check.Pass)
}
