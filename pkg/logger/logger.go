// Package logger provides logging for taskforge.
package logger

import (
	"fmt"
	"log"
	"os"
	"sort"
)

// Logger is the logging contract used across the server.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
}

// ConsoleLogger writes leveled, field-annotated lines to the process log.
type ConsoleLogger struct {
	Level  string
	fields map[string]interface{}
}

// Debug logs debug level messages.
func (l *ConsoleLogger) Debug(msg string, fields ...map[string]interface{}) {
	if l.Level == "debug" {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// Info logs info level messages.
func (l *ConsoleLogger) Info(msg string, fields ...map[string]interface{}) {
	l.logWithFields("INFO", msg, fields...)
}

// Warn logs warning level messages.
func (l *ConsoleLogger) Warn(msg string, fields ...map[string]interface{}) {
	l.logWithFields("WARN", msg, fields...)
}

// Error logs error level messages.
func (l *ConsoleLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	var allFields []map[string]interface{}
	if err != nil {
		allFields = append(allFields, map[string]interface{}{"error": err.Error()})
	}
	allFields = append(allFields, fields...)
	l.logWithFields("ERROR", msg, allFields...)
}

// Fatal logs fatal level messages and exits.
func (l *ConsoleLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Error(msg, err, fields...)
	os.Exit(1)
}

// WithFields returns a logger that annotates every line with the given fields.
func (l *ConsoleLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ConsoleLogger{Level: l.Level, fields: merged}
}

func (l *ConsoleLogger) logWithFields(level, msg string, fields ...map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	logMsg := fmt.Sprintf("[%s] %s", level, msg)
	for _, k := range keys {
		logMsg += fmt.Sprintf(" %s=%v", k, merged[k])
	}
	log.Println(logMsg)
}

// NewConsoleLogger creates a new console logger at the given level.
func NewConsoleLogger(level string) Logger {
	return &ConsoleLogger{Level: level}
}

// NewTestLogger creates a logger for testing.
func NewTestLogger() Logger {
	return &ConsoleLogger{Level: "debug"}
}

// NewLogger creates a new logger with default settings.
func NewLogger() Logger {
	return &ConsoleLogger{Level: "info"}
}
