// Package models contains the core data structures for the analyzer.
package models

import (
	"strconv"
	"strings"
	"time"
)

// LogLevel represents the severity level of a log event.
type LogLevel string

const (
	LevelDebug   LogLevel = "debug"
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
	LevelFatal   LogLevel = "fatal"
	LevelUnknown LogLevel = "unknown"
)

// LogEvent represents a single log event fetched from the log store.
// Events are immutable once fetched; detectors only read them.
type LogEvent struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Service identifies the emitting service (frontend, backend, ...).
	Service string `json:"service"`

	// Level is the severity level of the event.
	Level LogLevel `json:"level"`

	// Message is the free-text log message.
	Message string `json:"message"`

	// Tags are labels attached to the event by the shipper.
	Tags []string `json:"tags,omitempty"`

	// Fields contains additional structured data from the source
	// document, e.g. response_time or request.
	Fields map[string]any `json:"fields,omitempty"`
}

// HasTag reports whether the event carries the given tag.
func (e *LogEvent) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// GetField retrieves a field value.
func (e *LogEvent) GetField(key string) (any, bool) {
	if e.Fields == nil {
		return nil, false
	}
	val, ok := e.Fields[key]
	return val, ok
}

// GetFieldString retrieves a field value as string.
func (e *LogEvent) GetFieldString(key string) string {
	val, ok := e.GetField(key)
	if !ok {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// GetFieldFloat retrieves a numeric field value. Source documents carry
// numbers either natively or as strings; both are accepted. Returns
// false for missing fields and values that fail to parse.
func (e *LogEvent) GetFieldFloat(key string) (float64, bool) {
	val, ok := e.GetField(key)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsError reports whether the event should be treated as an error:
// level error/fatal (case-insensitive, sources are not trusted to
// canonicalize) or an explicit "error" tag.
func (e *LogEvent) IsError() bool {
	if strings.EqualFold(string(e.Level), string(LevelError)) || strings.EqualFold(string(e.Level), string(LevelFatal)) {
		return true
	}
	return e.HasTag("error")
}

// ParseLogLevel converts a string to LogLevel.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug", "DEBUG", "Debug":
		return LevelDebug
	case "info", "INFO", "Info", "notice", "NOTICE", "Notice":
		return LevelInfo
	case "warning", "WARNING", "Warning", "warn", "WARN", "Warn":
		return LevelWarning
	case "error", "ERROR", "Error", "err", "ERR", "Err":
		return LevelError
	case "fatal", "FATAL", "Fatal", "critical", "CRITICAL", "Critical", "crit", "CRIT", "Crit":
		return LevelFatal
	default:
		return LevelUnknown
	}
}
