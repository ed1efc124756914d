package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelQuiet // No output
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// String returns the upper-case level name
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "QUIET"
}

var logrusLevels = map[Level]logrus.Level{
	LevelDebug: logrus.DebugLevel,
	LevelInfo:  logrus.InfoLevel,
	LevelWarn:  logrus.WarnLevel,
	LevelError: logrus.ErrorLevel,
}

// Logger handles application logging.
// Terminal output carries the bare message; the optional log file gets
// timestamped JSON lines.
type Logger struct {
	level   Level
	console *logrus.Logger
	file    *logrus.Logger
	rotator *lumberjack.Logger
	mu      sync.Mutex
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// messageFormatter prints only the message, like the plain stderr output
// users expect from a command line tool.
type messageFormatter struct{}

func (messageFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return []byte(entry.Message + "\n"), nil
}

// New creates a logger writing to w at the given level
func New(w io.Writer, level Level) *Logger {
	console := logrus.New()
	console.SetOutput(w)
	console.SetFormatter(messageFormatter{})
	console.SetLevel(logrus.TraceLevel)
	return &Logger{
		level:   level,
		console: console,
	}
}

// Default returns the default logger instance
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(os.Stderr, LevelWarn)
	})
	return defaultLogger
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetVerbose enables debug output
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.SetLevel(LevelDebug)
	}
}

// SetQuiet disables all output except errors
func (l *Logger) SetQuiet(quiet bool) {
	if quiet {
		l.SetLevel(LevelError)
	}
}

// SetVerbosity maps a repeated -v count onto a level: none shows warnings
// and errors, one or two show progress, three and more show every request
// and command.
func (l *Logger) SetVerbosity(count int) {
	switch {
	case count >= 3:
		l.SetLevel(LevelDebug)
	case count >= 1:
		l.SetLevel(LevelInfo)
	default:
		l.SetLevel(LevelWarn)
	}
}

// EnableFileLogging adds a rotated JSON log file next to the terminal output.
// An empty path selects the default under LogDir.
func (l *Logger) EnableFileLogging(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if path == "" {
		logDir, err := LogDir()
		if err != nil {
			return err
		}
		path = filepath.Join(logDir, "project-summary.log")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	l.rotator = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		LocalTime:  true,
	}
	l.file = logrus.New()
	l.file.SetOutput(l.rotator)
	l.file.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	l.file.SetLevel(logrus.DebugLevel)
	return nil
}

// Close closes the log file if open
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rotator != nil {
		l.rotator.Close()
		l.rotator = nil
		l.file = nil
	}
}

// LogDir returns the log directory path
func LogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	// Use XDG_STATE_HOME for logs (standard for runtime data)
	xdgState := os.Getenv("XDG_STATE_HOME")
	if xdgState == "" {
		xdgState = filepath.Join(home, ".local", "state")
	}

	return filepath.Join(xdgState, "project-summary", "logs"), nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	// The file always receives debug detail regardless of terminal level
	if l.file != nil {
		l.file.Log(logrusLevels[level], msg)
	}

	if level < l.level {
		return
	}
	l.console.Log(logrusLevels[level], msg)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Package-level convenience functions
func Debug(format string, args ...interface{}) { Default().Debug(format, args...) }
func Info(format string, args ...interface{})  { Default().Info(format, args...) }
func Warn(format string, args ...interface{})  { Default().Warn(format, args...) }
func Error(format string, args ...interface{}) { Default().Error(format, args...) }
func SetVerbose(v bool)                        { Default().SetVerbose(v) }
func SetQuiet(q bool)                          { Default().SetQuiet(q) }
func SetVerbosity(count int)                   { Default().SetVerbosity(count) }
