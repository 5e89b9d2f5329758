package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/vociferous/vociferous/internal/domainerr"
)

// Progress is the narrow interface Manager reports startup progress
// through (start-up progress is a plain float estimate). StartAsync adapts
// a plain callback to it via progressFunc; progress.Tracker's step-based
// methods do not satisfy it.
type Progress interface {
	Update(fraction float64, message string)
}

// Manager adds process lifecycle on top of Client: auto-start, async
// startup, PID tracking, and graceful/forceful stop.
type Manager struct {
	Client          *Client
	BinaryPath      string
	BinaryArgs      []string
	PIDPath         string
	LogPath         string
	NominalLoadTime time.Duration
	Logger          *slog.Logger
}

// NewManager constructs a Manager. binaryPath/binaryArgs describe how to
// spawn the daemon process (typically the same executable with a
// `daemon start --foreground`-style subcommand).
func NewManager(client *Client, binaryPath string, binaryArgs []string, logger *slog.Logger) *Manager {
	return &Manager{
		Client:          client,
		BinaryPath:      binaryPath,
		BinaryArgs:      binaryArgs,
		PIDPath:         DefaultPIDPath(),
		LogPath:         defaultLogPath(),
		NominalLoadTime: 20 * time.Second,
		Logger:          logger,
	}
}

func defaultLogPath() string {
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "vociferous", "daemon.log")
	}
	return filepath.Join(os.TempDir(), "vociferous-daemon.log")
}

// IsRunning pings the daemon's HTTP surface.
func (m *Manager) IsRunning(ctx context.Context) bool {
	return m.Client.Ping(ctx)
}

// EnsureRunning starts the daemon synchronously when it is not running and
// autoStart is true; otherwise it reports whether the daemon was already
// running.
func (m *Manager) EnsureRunning(ctx context.Context, autoStart bool, progress Progress) (bool, error) {
	if m.IsRunning(ctx) {
		return true, nil
	}
	if !autoStart {
		return false, nil
	}
	if _, err := m.StartSync(ctx, 60*time.Second, progress); err != nil {
		return false, err
	}
	return true, nil
}

// StartSync spawns the daemon process detached, writes its PID file, and
// polls /health until model_loaded is true or timeout elapses. On timeout
// it SIGKILLs the process, removes the PID file, and returns a
// domainerr.KindDaemonStart error carrying the log tail.
func (m *Manager) StartSync(ctx context.Context, timeout time.Duration, progress Progress) (int, error) {
	if err := os.MkdirAll(filepath.Dir(m.LogPath), 0o700); err != nil {
		return 0, fmt.Errorf("create daemon log dir: %w", err)
	}
	logFile, err := os.OpenFile(m.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(m.BinaryPath, m.BinaryArgs...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn daemon process: %w", err)
	}
	pid := cmd.Process.Pid

	if err := WritePID(m.PIDPath, pid); err != nil {
		m.logWarn("write pid file failed", err)
	}
	go func() { _ = cmd.Wait() }()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		health, healthErr := m.Client.Health(ctx)
		if healthErr == nil && health.ModelLoaded {
			return pid, nil
		}
		if progress != nil {
			elapsed := time.Since(deadline.Add(-timeout))
			frac := elapsed.Seconds() / m.NominalLoadTime.Seconds()
			if frac > 0.95 {
				frac = 0.95
			}
			progress.Update(frac, "waiting for model to load")
		}
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			_ = RemovePID(m.PIDPath)
			return 0, domainerr.NewDaemonStart(m.tailLog(4096), fmt.Errorf("daemon did not become ready within %s", timeout))
		}
		select {
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			_ = RemovePID(m.PIDPath)
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

// AsyncStartupResult is the thread-safe handle returned by StartAsync: a
// one-shot task with a mutex-protected result cell.
type AsyncStartupResult struct {
	mu       sync.Mutex
	done     chan struct{}
	complete bool
	success  bool
	pid      int
	err      error
}

func newAsyncStartupResult() *AsyncStartupResult {
	return &AsyncStartupResult{done: make(chan struct{})}
}

// IsComplete reports whether the background startup has finished.
func (r *AsyncStartupResult) IsComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete
}

// Success reports the outcome; only meaningful once IsComplete is true.
func (r *AsyncStartupResult) Success() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.success
}

// PID returns the spawned process id, valid once Success is true.
func (r *AsyncStartupResult) PID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pid
}

// Err returns the startup failure, valid once IsComplete is true and
// Success is false.
func (r *AsyncStartupResult) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Wait blocks until the startup completes or timeout elapses, returning
// false on timeout without cancelling the background startup.
func (r *AsyncStartupResult) Wait(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (r *AsyncStartupResult) finish(pid int, err error) {
	r.mu.Lock()
	r.complete = true
	r.success = err == nil
	r.pid = pid
	r.err = err
	r.mu.Unlock()
	close(r.done)
}

// StartAsync runs StartSync on a detached daemon goroutine that does not
// block process exit, reporting progress via progressCallback if non-nil.
func (m *Manager) StartAsync(ctx context.Context, timeout time.Duration, progressCallback func(fraction float64, message string)) *AsyncStartupResult {
	result := newAsyncStartupResult()

	var progress Progress
	if progressCallback != nil {
		progress = progressFunc(progressCallback)
	}

	go func() {
		pid, err := m.StartSync(ctx, timeout, progress)
		result.finish(pid, err)
	}()

	return result
}

type progressFunc func(fraction float64, message string)

func (f progressFunc) Update(fraction float64, message string) { f(fraction, message) }

// Stop sends SIGTERM, polls for exit, escalates to SIGKILL after timeout,
// and always removes the PID file.
func (m *Manager) Stop(timeout time.Duration) error {
	pid, ok := GetDaemonPID(m.PIDPath)
	if !ok {
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		_ = RemovePID(m.PIDPath)
		return nil
	}

	_ = process.Signal(syscall.SIGTERM)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !IsProcessAlive(pid) {
			_ = RemovePID(m.PIDPath)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	_ = process.Kill()
	_ = RemovePID(m.PIDPath)
	return nil
}

// Restart stops then starts the daemon synchronously.
func (m *Manager) Restart(ctx context.Context, startTimeout, stopTimeout time.Duration, progress Progress) (int, error) {
	if err := m.Stop(stopTimeout); err != nil {
		return 0, err
	}
	return m.StartSync(ctx, startTimeout, progress)
}

func (m *Manager) tailLog(maxBytes int) string {
	data, err := os.ReadFile(m.LogPath)
	if err != nil {
		return ""
	}
	if len(data) > maxBytes {
		data = data[len(data)-maxBytes:]
	}
	return strings.TrimSpace(string(data))
}

func (m *Manager) logWarn(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Warn(msg, "error", err)
	}
}
