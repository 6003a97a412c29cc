// Package diaglog implements the append-only diagnostic trace file.
//
// The file is newline-delimited, human-readable text. The first line written
// by a Logger is a startup banner; the daemon then writes the process id, and
// every later line is one logged event. The format is unversioned and not
// meant for machine parsing.
//
// A Logger serializes writers with its own mutex, independent of any data
// lock, so code holding the assembler lock may log freely. Logger methods
// never call back into the caller, so the mutex cannot be re-entered.
package diaglog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// DefaultPath is where the daemon writes its diagnostic log by default.
const DefaultPath = "/tmp/audit.log"

// Banner is the first line written to every log.
const Banner = "Starting audit service..."

// Logger is a line-oriented append-only sink.
// Every write is flushed before the call returns.
type Logger struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	path   string
}

// Open opens (or creates) path in append mode and writes the banner.
// A failure here is fatal to the daemon: it has no other output channel.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open diagnostic log %s: %w", path, err)
	}
	l := &Logger{w: bufio.NewWriter(f), closer: f, path: path}
	if err := l.LogLine(Banner); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an arbitrary writer and writes the banner. If w is an io.Closer
// it is closed by Close.
func New(w io.Writer) (*Logger, error) {
	l := &Logger{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	if err := l.LogLine(Banner); err != nil {
		return nil, err
	}
	return l, nil
}

// Path returns the file path, or "" for writer-backed loggers.
func (l *Logger) Path() string {
	return l.path
}

// LogLine appends text and a newline, then flushes.
// Embedded newlines are replaced with spaces so one call is one line.
func (l *Logger) LogLine(text string) error {
	text = strings.ReplaceAll(text, "\n", " ")

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return fmt.Errorf("diagnostic log closed")
	}
	if _, err := l.w.WriteString(text); err != nil {
		return fmt.Errorf("write diagnostic log: %w", err)
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write diagnostic log: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("flush diagnostic log: %w", err)
	}
	return nil
}

// Logf formats according to a format specifier and logs the result as one line.
func (l *Logger) Logf(format string, args ...any) error {
	return l.LogLine(fmt.Sprintf(format, args...))
}

// LogPID writes the process id line that follows the banner.
func (l *Logger) LogPID(pid int) error {
	return l.Logf("Runtime query service pid: %d", pid)
}

// LogThreadInit writes the one-line banner for a capture worker.
// Called once per worker before it delivers its first record.
func (l *Logger) LogThreadInit(worker string) error {
	return l.Logf("audit writer thread, worker:%s", worker)
}

// Close flushes and closes the underlying writer. Further writes fail.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return nil
	}
	err := l.w.Flush()
	l.w = nil
	if l.closer != nil {
		if cerr := l.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
