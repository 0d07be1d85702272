package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger  = newLogger()
	file    *os.File
	mu      sync.Mutex
	enabled bool
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(lineFormatter{})
	l.SetLevel(logrus.DebugLevel)
	return l
}

// lineFormatter writes "[15:04:05.000] category  message" lines
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	category, _ := e.Data["category"].(string)
	msg := e.Message
	if e.Level <= logrus.WarnLevel {
		msg = "WARN " + msg
	}
	return []byte(fmt.Sprintf("[%s] %-10s %s\n", e.Time.Format("15:04:05.000"), category, msg)), nil
}

// syncWriter flushes every line so logs survive a crash
type syncWriter struct {
	f *os.File
}

func (w syncWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.f.Sync()
}

// DefaultPath returns ~/.config/go-steps/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-steps", "debug.log")
}

// Enable starts debug logging to path (DefaultPath if empty)
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	file = f
	logger.SetOutput(syncWriter{f: f})
	enabled = true

	logger.WithField("category", "debug").Info("=== Debug logging started ===")
	return nil
}

// SetOutput sends log lines to w instead of a file (nil disables)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	enabled = w != nil
	if w == nil {
		w = io.Discard
	}
	logger.SetOutput(w)
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	logger.SetOutput(io.Discard)
	enabled = false
}

// Enabled reports whether log lines are being written
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	write(logrus.InfoLevel, category, format, args...)
}

// Warn writes a message flagged as a warning
func Warn(category, format string, args ...any) {
	write(logrus.WarnLevel, category, format, args...)
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n > 0 && count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

func write(level logrus.Level, category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled {
		return
	}
	logger.WithField("category", category).Logf(level, format, args...)
}

func closeFile() {
	if file != nil {
		file.Close()
		file = nil
	}
}
