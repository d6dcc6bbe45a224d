package debug

import (
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
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return l
}

// Enable starts debug logging to ~/.config/go-melodycards/debug.log
func Enable() error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	homeDir, _ := os.UserHomeDir()
	dir := filepath.Join(homeDir, ".config", "go-melodycards")

	// Ensure directory exists
	os.MkdirAll(dir, 0755)

	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true
	logger.SetOutput(f)
	logger.WithField("cat", "debug").Info("=== Debug logging started ===")

	return nil
}

// EnableWriter sends log output to w (stderr for the server, a buffer in tests)
func EnableWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	enabled = true
	logger.SetOutput(w)
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	enabled = false
	logger.SetOutput(io.Discard)
}

func closeFile() {
	if file != nil {
		file.Close()
		file = nil
	}
}

// SetLevel accepts logrus level names; unknown names keep the current level
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		Warn("debug", "unknown log level %q", name)
		return
	}
	logger.SetLevel(lvl)
}

// Log writes a debug message to the log
func Log(category, format string, args ...any) {
	logger.WithField("cat", category).Debugf(format, args...)
}

// Info writes an info-level message
func Info(category, format string, args ...any) {
	logger.WithField("cat", category).Infof(format, args...)
}

// Warn records a recovered problem (bad input replaced by a default)
func Warn(category, format string, args ...any) {
	logger.WithField("cat", category).Warnf(format, args...)
}

// Error records a failed operation
func Error(category string, err error, format string, args ...any) {
	logger.WithField("cat", category).WithError(err).Errorf(format, args...)
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// Enabled reports whether output goes anywhere
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}
