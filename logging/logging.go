// Package logging provides leveled key=value console logging for the
// Slack agent service.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes lines of the form:
//
//	LEVEL TIMESTAMP [component] message key=value ...
//
// Child loggers created with WithComponent share the parent's output and
// level. Safe for concurrent use.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  *Level
	component string
	fields    map[string]interface{}
}

// New creates a Logger writing to stdout at INFO level.
func New() *Logger {
	level := LevelInfo
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stdout,
		minLevel: &level,
	}
}

// WithComponent returns a child logger tagged with the component name.
func (l *Logger) WithComponent(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

// WithField returns a child logger that attaches the key=value pair to
// every line it writes.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	child := *l
	child.fields = make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		child.fields[k] = v
	}
	child.fields[key] = value
	return &child
}

// SetLevel sets the minimum level for this logger and its children.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields renders fields as sorted key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelPriority[level] < levelPriority[*l.minLevel] {
		return
	}

	merged := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		merged[k] = v
	}
	if len(fields) > 0 {
		for k, v := range fields[0] {
			merged[k] = v
		}
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, formatFields(merged))
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, formatFields(merged))
	}

	l.output.Write([]byte(line))
}
