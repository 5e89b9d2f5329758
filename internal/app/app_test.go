package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupRunnerEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
}

func TestExecuteHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "vociferous")
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
	require.Contains(t, stderr.String(), "Usage:")
}

func TestExecuteDoctorRunsDiagnosticsWithDefaultsConfig(t *testing.T) {
	setupRunnerEnv(t)

	var stdout, stderr bytes.Buffer
	exitCode := Execute(context.Background(), []string{"doctor"}, &stdout, &stderr)

	require.Contains(t, stdout.String(), "config:")
	require.True(t, exitCode == 0 || exitCode == 1)
}

func TestExecuteTranscribeMissingInputFails(t *testing.T) {
	setupRunnerEnv(t)

	var stdout, stderr bytes.Buffer
	exitCode := Execute(context.Background(), []string{"transcribe"}, &stdout, &stderr)

	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "requires --input")
}

func TestExecuteDecodeMissingFlagsFails(t *testing.T) {
	setupRunnerEnv(t)

	var stdout, stderr bytes.Buffer
	exitCode := Execute(context.Background(), []string{"decode"}, &stdout, &stderr)

	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "requires --input")
}

func TestExecuteDaemonWithoutActionFails(t *testing.T) {
	setupRunnerEnv(t)

	var stdout, stderr bytes.Buffer
	exitCode := Execute(context.Background(), []string{"daemon"}, &stdout, &stderr)

	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "sub-action")
}

func TestExecuteBatchMissingFlagsFails(t *testing.T) {
	setupRunnerEnv(t)

	var stdout, stderr bytes.Buffer
	exitCode := Execute(context.Background(), []string{"batch"}, &stdout, &stderr)

	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "requires --dir")
}
