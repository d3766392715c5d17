// Package synclog writes the append-only POS synchronization audit log.
// Every line records one step of an outbound or inbound exchange with the
// POS backend, timestamped to microsecond precision.
package synclog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/erp/pos-bridge/internal/domain/integration"
)

const timestampLayout = "2006-01-02 15:04:05.000000"

// Logger appends tagged entries to a single audit stream. It is opened once
// at startup, safe for concurrent use, and closed at process shutdown.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
}

// Open creates a Logger appending to the file at path, creating parent
// directories as needed. Entries are written unbuffered so every line is
// handed to the OS before Log returns.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("synclog: failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("synclog: failed to open log file: %w", err)
	}
	return &Logger{w: f, closer: f, now: time.Now}, nil
}

// New creates a Logger writing to w. Used in tests and for stdout streaming.
func New(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// Log appends one entry tagged with the given direction
func (l *Logger) Log(direction integration.Direction, line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%s] %s %s\n", l.now().Format(timestampLayout), direction, line)
}

// Logf appends one formatted entry tagged with the given direction
func (l *Logger) Logf(direction integration.Direction, format string, args ...any) {
	l.Log(direction, fmt.Sprintf(format, args...))
}

// Close closes the underlying file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
