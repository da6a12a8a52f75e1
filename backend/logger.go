package backend

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// LogLevel represents the severity level of a log entry
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
}

// Logger keeps recent console logs in memory and mirrors them to klog.
type Logger struct {
	mu      sync.RWMutex
	entries []LogEntry
	maxSize int
	toKlog  bool
}

// NewLogger creates a logger holding at most maxSize entries.
func NewLogger(maxSize int) *Logger {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Logger{
		entries: make([]LogEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// MirrorToKlog enables or disables writing each entry to klog as well.
func (l *Logger) MirrorToKlog(enabled bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.toKlog = enabled
	l.mu.Unlock()
}

// Log adds a log entry with the specified level, message and optional source
func (l *Logger) Log(level LogLevel, message string, source ...string) {
	if l == nil {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   message,
	}
	if len(source) > 0 {
		entry.Source = source[0]
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.maxSize {
		// Re-slice into a fresh buffer so capacity can't grow unbounded
		start := len(l.entries) - l.maxSize
		trimmed := make([]LogEntry, l.maxSize)
		copy(trimmed, l.entries[start:])
		l.entries = trimmed
	}
	mirror := l.toKlog
	l.mu.Unlock()

	if mirror {
		writeKlog(level, entry)
	}
}

func writeKlog(level LogLevel, entry LogEntry) {
	line := entry.Message
	if entry.Source != "" {
		line = fmt.Sprintf("[%s] %s", entry.Source, entry.Message)
	}
	// depth 3 attributes the line to the caller of Debug/Info/Warn/Error
	switch level {
	case LogLevelDebug:
		if klog.V(4).Enabled() {
			klog.InfoDepth(3, line)
		}
	case LogLevelWarn:
		klog.WarningDepth(3, line)
	case LogLevelError:
		klog.ErrorDepth(3, line)
	default:
		klog.InfoDepth(3, line)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(message string, source ...string) {
	l.Log(LogLevelDebug, message, source...)
}

// Info logs an info message
func (l *Logger) Info(message string, source ...string) {
	l.Log(LogLevelInfo, message, source...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, source ...string) {
	l.Log(LogLevelWarn, message, source...)
}

// Error logs an error message
func (l *Logger) Error(message string, source ...string) {
	l.Log(LogLevelError, message, source...)
}

// GetEntries returns a copy of all log entries
func (l *Logger) GetEntries() []LogEntry {
	if l == nil {
		return []LogEntry{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]LogEntry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// Count returns the number of log entries
func (l *Logger) Count() int {
	if l == nil {
		return 0
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
