package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes level-prefixed lines to a single output
type Logger struct {
	mu     sync.RWMutex
	level  LogLevel
	output io.Writer
	logs   map[LogLevel]*log.Logger
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// New creates a logger writing to output at the given level
func New(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	l := &Logger{level: level, output: output, logs: make(map[LogLevel]*log.Logger, 4)}
	for _, lvl := range []LogLevel{DEBUG, INFO, WARNING, ERROR} {
		l.logs[lvl] = log.New(output, fmt.Sprintf("[%s] ", lvl.String()), log.LstdFlags)
	}
	return l
}

// Init initializes the global logger with the specified level and output
func Init(level LogLevel, output io.Writer) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = New(level, output)
}

// ParseLogLevel parses a string log level, defaulting to INFO
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARNING", "WARN":
		return WARNING
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = New(INFO, os.Stdout)
	}
	return globalLogger
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level LogLevel) bool {
	return l.Level() <= level
}

// SetOutput changes the output destination for all levels
func (l *Logger) SetOutput(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = output
	for _, lg := range l.logs {
		lg.SetOutput(output)
	}
}

// Writer returns the current output
func (l *Logger) Writer() io.Writer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.output
}

func (l *Logger) logf(level LogLevel, format string, v ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.mu.RLock()
	lg := l.logs[level]
	l.mu.RUnlock()
	lg.Printf(format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) { l.logf(DEBUG, format, v...) }

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) { l.logf(INFO, format, v...) }

// Warning logs a warning message
func (l *Logger) Warning(format string, v ...interface{}) { l.logf(WARNING, format, v...) }

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) { l.logf(ERROR, format, v...) }

// Fatal logs an error message and exits the program
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.mu.RLock()
	lg := l.logs[ERROR]
	l.mu.RUnlock()
	lg.Printf(format, v...)
	os.Exit(1)
}

// Global convenience functions
func Debug(format string, v ...interface{}) {
	GetLogger().Debug(format, v...)
}

func Info(format string, v ...interface{}) {
	GetLogger().Info(format, v...)
}

func Warning(format string, v ...interface{}) {
	GetLogger().Warning(format, v...)
}

func Error(format string, v ...interface{}) {
	GetLogger().Error(format, v...)
}

func Fatal(format string, v ...interface{}) {
	GetLogger().Fatal(format, v...)
}

// SetLevel changes the level of the global logger
func SetLevel(level LogLevel) {
	GetLogger().SetLevel(level)
}

// SetOutput changes the output of the global logger
func SetOutput(output io.Writer) {
	GetLogger().SetOutput(output)
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLogger().Enabled(DEBUG)
}
