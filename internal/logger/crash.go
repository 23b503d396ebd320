// Package logger configures structured logging and records crashes.
package logger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

const (
	// CrashLogDir is the directory for crash logs inside the data directory.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep.
	MaxCrashLogs = 10
)

// crashContext is what a crash log records besides the panic itself.
type crashContext struct {
	mu       sync.RWMutex
	basePath string
	version  string
	command  string
	session  string
	taskID   int64
}

var globalContext = &crashContext{}

// SetBasePath sets the data directory crash logs are written under.
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// SetSession records the active editing session. An empty id clears it.
func SetSession(id string, taskID int64) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.session = id
	globalContext.taskID = taskID
}

// CrashLog is one crash log file.
type CrashLog struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Command    string    `json:"command"`
	Where      string    `json:"where,omitempty"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
	SessionID  string    `json:"session_id,omitempty"`
	TaskID     int64     `json:"task_id,omitempty"`
	GoVersion  string    `json:"go_version"`
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
}

// HandlePanic recovers a panic in the main goroutine, writes a crash log and
// exits with status 1.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	log := createCrashLog(r, "main")
	path, err := writeCrashLog(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
		fmt.Fprintf(os.Stderr, "[CRASH] Panic: %v\n%s\n", r, log.StackTrace)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\ngeotask encountered an unexpected error.\n")
	fmt.Fprintf(os.Stderr, "A crash log has been saved to:\n  %s\n\n", path)
	os.Exit(1)
}

// Recover is the non-exiting variant for background goroutines. The panic
// is logged and written to a crash log; execution continues in the caller's
// caller.
// Usage: defer logger.Recover(log, "correlator")
func Recover(log *slog.Logger, where string) {
	r := recover()
	if r == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}
	cl := createCrashLog(r, where)
	path, err := writeCrashLog(cl)
	if err != nil {
		log.Error("recovered panic", "where", where, "panic", cl.PanicValue, "crash_log_error", err)
		return
	}
	log.Error("recovered panic", "where", where, "panic", cl.PanicValue, "crash_log", path)
}

func createCrashLog(panicValue any, where string) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		Timestamp:  time.Now(),
		Version:    globalContext.version,
		Command:    globalContext.command,
		Where:      where,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		SessionID:  globalContext.session,
		TaskID:     globalContext.taskID,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

func writeCrashLog(log CrashLog) (string, error) {
	dir := crashLogDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}

	// Non-fatal; the new log is still written.
	if err := cleanOldCrashLogs(dir); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode crash log: %w", err)
	}
	path := crashLogPath(log.Timestamp)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	return path, nil
}

func crashLogDir() string {
	globalContext.mu.RLock()
	basePath := globalContext.basePath
	globalContext.mu.RUnlock()

	if basePath == "" {
		basePath = ".geotask"
	}
	return filepath.Join(basePath, CrashLogDir)
}

func crashLogPath(t time.Time) string {
	filename := fmt.Sprintf("crash_%s.json", t.Format("20060102_150405.000000000"))
	return filepath.Join(crashLogDir(), filename)
}

func isCrashLog(name string) bool {
	return strings.HasPrefix(name, "crash_") && strings.HasSuffix(name, ".json")
}

// cleanOldCrashLogs keeps room for one more log under MaxCrashLogs.
func cleanOldCrashLogs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var logs []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() && isCrashLog(e.Name()) {
			logs = append(logs, e)
		}
	}
	if len(logs) < MaxCrashLogs {
		return nil
	}

	// os.ReadDir sorts by name and names embed the timestamp, so the
	// oldest logs come first.
	for _, e := range logs[:len(logs)-MaxCrashLogs+1] {
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", e.Name(), err)
		}
	}
	return nil
}

// ListCrashLogs returns every crash log path, oldest first.
func ListCrashLogs() ([]string, error) {
	dir := crashLogDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []string
	for _, e := range entries {
		if !e.IsDir() && isCrashLog(e.Name()) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	return logs, nil
}

// ReadCrashLog decodes a crash log file.
func ReadCrashLog(path string) (CrashLog, error) {
	var log CrashLog
	data, err := os.ReadFile(path)
	if err != nil {
		return log, err
	}
	err = json.Unmarshal(data, &log)
	return log, err
}
