// Package logger prints leveled diagnostics to stderr.
// Warnings and errors are always printed. Debug and info messages, and
// section headers, only appear in verbose mode (--verbose) and trace
// indexing and retrieval.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level is the severity of a message.
type Level int

// Levels in increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag printed in front of messages of this level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

var (
	mu       sync.Mutex
	minLevel           = LevelWarn
	output   io.Writer = os.Stderr
)

// SetVerbose lowers the threshold to debug, or restores the default of warn.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelWarn)
}

// SetLevel sets the lowest level that is printed.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// IsVerbose reports whether debug messages are printed.
func IsVerbose() bool {
	return Enabled(LevelDebug)
}

// Enabled reports whether messages of level l are printed.
func Enabled(l Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return l >= minLevel
}

// SetOutput redirects all messages. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < minLevel {
		return
	}
	fmt.Fprintf(output, "["+l.String()+"] "+format+"\n", args...)
}

// Section prints a header separating pipeline stages in verbose output.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if minLevel <= LevelDebug {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Debug prints a trace message.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info prints a progress message.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn prints a recoverable problem, such as a skipped file.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error prints a failure that did not stop the program.
func Error(format string, args ...any) { logf(LevelError, format, args...) }
