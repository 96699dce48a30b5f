// Package logger provides the leveled logging interface used across the
// filter and its transport and domain packages.
package logger

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// Logger is implemented by everything that logs on behalf of the filter.
// Callers pass presence/length/kind of sensitive values, never the
// token, cookie, state, or nonce content itself.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// Level controls which messages StandardLogger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
	LevelNone
)

// ParseLevel converts a config string into a Level, defaulting to info.
func ParseLevel(level string) Level {
	switch level {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "error", "ERROR":
		return LevelError
	case "none", "NONE":
		return LevelNone
	default:
		return LevelInfo
	}
}

// StandardLogger is a thread-safe Logger built on the standard log package.
type StandardLogger struct {
	mu       sync.RWMutex
	logError *log.Logger
	logInfo  *log.Logger
	logDebug *log.Logger
	fields   map[string]interface{}
	level    Level
}

// New creates a StandardLogger at the given level. Nil writers discard output.
func New(level string, errorOutput, infoOutput, debugOutput io.Writer) *StandardLogger {
	if errorOutput == nil {
		errorOutput = io.Discard
	}
	if infoOutput == nil {
		infoOutput = io.Discard
	}
	if debugOutput == nil {
		debugOutput = io.Discard
	}

	return &StandardLogger{
		logError: log.New(errorOutput, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		logInfo:  log.New(infoOutput, "INFO: ", log.Ldate|log.Ltime),
		logDebug: log.New(debugOutput, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile),
		fields:   make(map[string]interface{}),
		level:    ParseLevel(level),
	}
}

// Default builds a StandardLogger writing every stream to log.Writer().
func Default(level string) Logger {
	return New(level, log.Writer(), log.Writer(), log.Writer())
}

func (l *StandardLogger) Debug(msg string) {
	if l.level <= LevelDebug {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logDebug.Print(l.formatWithFields(msg))
	}
}

func (l *StandardLogger) Debugf(format string, args ...interface{}) {
	if l.level <= LevelDebug {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logDebug.Print(l.formatWithFields(fmt.Sprintf(format, args...)))
	}
}

func (l *StandardLogger) Info(msg string) {
	if l.level <= LevelInfo {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logInfo.Print(l.formatWithFields(msg))
	}
}

func (l *StandardLogger) Infof(format string, args ...interface{}) {
	if l.level <= LevelInfo {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logInfo.Print(l.formatWithFields(fmt.Sprintf(format, args...)))
	}
}

func (l *StandardLogger) Error(msg string) {
	if l.level <= LevelError {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logError.Print(l.formatWithFields(msg))
	}
}

func (l *StandardLogger) Errorf(format string, args ...interface{}) {
	if l.level <= LevelError {
		l.mu.RLock()
		defer l.mu.RUnlock()
		l.logError.Print(l.formatWithFields(fmt.Sprintf(format, args...)))
	}
}

// WithField returns a new logger sharing this one's writers plus one field.
func (l *StandardLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new logger sharing this one's writers plus the given fields.
func (l *StandardLogger) WithFields(fields map[string]interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := &StandardLogger{
		logError: l.logError,
		logInfo:  l.logInfo,
		logDebug: l.logDebug,
		fields:   make(map[string]interface{}, len(l.fields)+len(fields)),
		level:    l.level,
	}
	for k, v := range l.fields {
		next.fields[k] = v
	}
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

func (l *StandardLogger) formatWithFields(msg string) string {
	if len(l.fields) == 0 {
		return msg
	}
	fieldsStr := ""
	for k, v := range l.fields {
		if fieldsStr != "" {
			fieldsStr += " "
		}
		fieldsStr += fmt.Sprintf("%s=%v", k, v)
	}
	return fmt.Sprintf("%s [%s]", msg, fieldsStr)
}

// NoOp discards everything. Used where ports need a logger and tests don't care.
type NoOp struct{}

func (NoOp) Debug(string)                                {}
func (NoOp) Debugf(string, ...interface{})               {}
func (NoOp) Info(string)                                 {}
func (NoOp) Infof(string, ...interface{})                {}
func (NoOp) Error(string)                                {}
func (NoOp) Errorf(string, ...interface{})               {}
func (n NoOp) WithField(string, interface{}) Logger      { return n }
func (n NoOp) WithFields(map[string]interface{}) Logger  { return n }

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = NoOp{}
)
