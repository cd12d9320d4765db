package logging

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// writeLog formats and routes a log line. DEBUG/INFO/WARN go to stdout,
// ERROR/FATAL to stderr. Fields are rendered in sorted key order so output
// is stable.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	line := fmt.Sprintf("[%s] [%s] %s: %s", Timestamp(), level, l.name, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		line += " |"
		for _, k := range keys {
			line += fmt.Sprintf(" %s=%v", k, fields[k])
		}
	}

	out := os.Stdout
	if level == "ERROR" || level == "FATAL" {
		out = os.Stderr
	}
	fmt.Fprintln(out, line)
}

func (l *Logger) logf(level, msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.writeLog(level, msg, l.fields)
}

func (l *Logger) logFields(level, msg string, extra []LogField) {
	merged := cloneFields(l.fields)
	for _, f := range extra {
		merged[f.Key] = f.Value
	}
	l.writeLog(level, msg, merged)
}

// Timestamp returns an RFC3339 timestamp. The LOG_TIMESTAMP env var
// overrides it for deterministic test output.
func Timestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
