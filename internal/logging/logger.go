// Package logging provides structured leveled logging for the temblor
// service.
//
// Initialize the logger once at startup, then obtain named component
// loggers:
//
//	logging.Initialize("info")
//	logger := logging.GetLogger("api")
//	logger.Info("listening on port %d", 8080)
//
// Structured fields are available for searchability:
//
//	logger.InfoWithFields("request processed",
//	    logging.Field("status_code", 200),
//	    logging.Field("path", r.URL.Path),
//	)
//
// Loggers are immutable; WithField returns a child logger carrying the
// persistent field, safe for concurrent use.
//
// Per-package levels can be configured with patterns, e.g.
// {"memory.*": "DEBUG"}; packages without an override use the default
// level. Levels in increasing severity: DEBUG, INFO, WARN, ERROR, FATAL.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// ParseLevel maps a level name to a LogLevel; unknown names default to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	}
	return INFO
}

// LogField is a structured logging field.
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a structured logging field.
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger writes leveled log output for one named component.
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
}

var (
	globalLogger *Logger
	initOnce     sync.Once

	packageLevels = make(map[string]LogLevel)
	packageMu     sync.RWMutex

	// exitFunc is called by Fatal; overridable in tests.
	exitFunc = os.Exit
)

// Initialize sets up the global logger with a default level and optional
// per-package overrides ({"pattern": "LEVEL"}; patterns may end in ".*").
func Initialize(levelStr string, overrides ...map[string]string) error {
	globalLogger = &Logger{level: ParseLevel(levelStr), name: "temblor"}
	if len(overrides) > 0 && overrides[0] != nil {
		return SetPackageLogLevels(overrides[0])
	}
	return nil
}

// SetPackageLogLevels configures per-package log levels.
func SetPackageLogLevels(levels map[string]string) error {
	packageMu.Lock()
	defer packageMu.Unlock()
	for pattern, name := range levels {
		if pattern == "" {
			return fmt.Errorf("empty package pattern")
		}
		packageLevels[pattern] = ParseLevel(name)
	}
	return nil
}

// packageLevel returns the override for a logger name, or -1 when none
// applies. Exact matches win over wildcard prefixes.
func packageLevel(name string) LogLevel {
	packageMu.RLock()
	defer packageMu.RUnlock()
	if lvl, ok := packageLevels[name]; ok {
		return lvl
	}
	for pattern, lvl := range packageLevels {
		if prefix, ok := strings.CutSuffix(pattern, ".*"); ok && strings.HasPrefix(name, prefix+".") {
			return lvl
		}
	}
	return -1
}

// GetLogger returns a logger for the named component, initializing the
// global logger at INFO on first use.
func GetLogger(name string) *Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			_ = Initialize("info")
		}
	})
	return &Logger{level: globalLogger.level, name: name, fields: map[string]interface{}{}}
}

// WithField returns a child logger with one persistent field added.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	fields := cloneFields(l.fields)
	fields[key] = value
	return &Logger{level: l.level, name: l.name, fields: fields}
}

// WithFields returns a child logger with several persistent fields added.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	merged := cloneFields(l.fields)
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	return &Logger{level: l.level, name: l.name, fields: merged}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	if pkg := packageLevel(l.name); pkg >= 0 {
		return level >= pkg
	}
	return level >= l.level
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf("DEBUG", msg, args...)
	}
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf("INFO", msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf("WARN", msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf("ERROR", msg, args...)
	}
}

// ErrorWithErr logs an error message with the error appended.
func (l *Logger) ErrorWithErr(msg string, err error) {
	l.Error("%s: %v", msg, err)
}

// Fatal logs a fatal message and exits with code 1.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf("FATAL", msg, args...)
	}
	exitFunc(1)
}

// DebugWithFields logs a debug message with one-off structured fields.
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logFields("DEBUG", msg, fields)
	}
}

// InfoWithFields logs an info message with one-off structured fields.
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logFields("INFO", msg, fields)
	}
}

// WarnWithFields logs a warning with one-off structured fields.
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logFields("WARN", msg, fields)
	}
}

// ErrorWithFields logs an error with one-off structured fields.
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logFields("ERROR", msg, fields)
	}
}

func cloneFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
