// Package doctor runs runtime readiness diagnostics for config, required
// external tools, the VAD model, and the warm-model daemon.
package doctor

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/vociferous/vociferous/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	return r.FailureCount() == 0
}

// FailureCount counts failed checks.
func (r Report) FailureCount() int {
	n := 0
	for _, check := range r.Checks {
		if !check.Pass {
			n++
		}
	}
	return n
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return b.String()
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Config) Report {
	checks := []Check{
		checkConfigValid(cfg),
		checkBinary("ffmpeg", "required for audio decoding"),
		checkBinary("ffprobe", "required for audio validation"),
		checkVADModel(cfg),
	}

	if len(cfg.ClipboardCmd.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.ClipboardCmd.Argv, "clipboard_cmd"))
	}

	checks = append(checks, checkDaemonReachable(ctx, cfg))

	return Report{Checks: checks}
}

func checkConfigValid(cfg config.Config) Check {
	if _, err := config.Validate(cfg); err != nil {
		return Check{Name: "config", Pass: false, Message: err.Error()}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("engine=%s daemon_mode=%s", cfg.Engine.Kind, cfg.Daemon.Mode)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func checkVADModel(cfg config.Config) Check {
	path := filepath.Join(cfg.Engine.ModelCacheDir, "silero_vad.onnx")
	if _, err := os.Stat(path); err == nil {
		return Check{Name: "vad.model", Pass: true, Message: fmt.Sprintf("found at %s", path)}
	}
	return Check{Name: "vad.model", Pass: false, Message: fmt.Sprintf("silero_vad.onnx not found under %s", cfg.Engine.ModelCacheDir)}
}

func checkDaemonReachable(ctx context.Context, cfg config.Config) Check {
	if cfg.Daemon.Mode == config.DaemonModeOff {
		return Check{Name: "daemon", Pass: true, Message: "daemon_mode is off, skipping reachability check"}
	}

	addr := cfg.Daemon.HTTPAddr
	if addr == "" {
		addr = "127.0.0.1:8765"
	}

	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return Check{Name: "daemon", Pass: false, Message: fmt.Sprintf("not reachable at %s (will auto-start if daemon_mode requires it): %v", addr, err)}
	}
	_ = conn.Close()
	return Check{Name: "daemon", Pass: true, Message: fmt.Sprintf("reachable at %s", addr)}
}
