package utils

import (
	"log"
	"os"
	"sync"
)

// Logger provides leveled logging with verbose mode support. Components
// receive their Logger through their constructors so they stay testable in
// isolation; the CLI owns the process-wide instance.
type Logger struct {
	verbose bool
	mu      sync.RWMutex
	out     *log.Logger
}

// NewLogger creates a logger writing to stderr.
func NewLogger(verbose bool) *Logger {
	flags := 0
	if verbose {
		flags = log.Ldate | log.Ltime
	}
	return &Logger{
		verbose: verbose,
		out:     log.New(os.Stderr, "", flags),
	}
}

// SetVerbose enables or disables verbose logging.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
	if verbose {
		l.out.SetFlags(log.Ldate | log.Ltime)
	} else {
		l.out.SetFlags(0)
	}
}

// IsVerbose returns whether verbose logging is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// Debug logs a debug message (only when verbose is enabled).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.IsVerbose() {
		l.out.Printf("[DEBUG] "+format, args...)
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.out.Printf("[INFO] "+format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.out.Printf("[WARN] "+format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.out.Printf("[ERROR] "+format, args...)
}
