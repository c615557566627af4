package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

var (
	defaultLogger *Logger
	defaultLock   sync.RWMutex
)

func init() {
	defaultLogger = New(os.Stdout, Options{Level: LogLevelDebug, Format: FormatJSON})
}

type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (level LogLevel) String() string {
	switch level {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a log level string into a LogLevel.
// Valid log levels are: error, warn, info, debug, trace.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	case "trace":
		return LogLevelTrace, nil
	default:
		return LogLevelError, fmt.Errorf("unknown log level: %s", level)
	}
}

// Format selects the line encoding of a Logger.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat parses "json" or "text".
func ParseFormat(format string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", format)
	}
}

type Options struct {
	Prefix string
	Level  LogLevel
	Format Format
	// NoTimestamp drops the time field, mostly useful in tests.
	NoTimestamp bool
}

type Logger struct {
	backend *charmlog.Logger
	level   LogLevel
	lock    sync.RWMutex
}

func New(out io.Writer, opts Options) *Logger {
	formatter := charmlog.JSONFormatter
	if opts.Format == FormatText {
		formatter = charmlog.TextFormatter
	}
	backend := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: !opts.NoTimestamp,
		TimeFormat:      time.RFC3339,
		Prefix:          opts.Prefix,
		Level:           charmlog.DebugLevel,
		Formatter:       formatter,
	})
	return &Logger{
		backend: backend,
		level:   opts.Level,
	}
}

// SetDefaultLogger replaces the logger used by the package-level functions.
func SetDefaultLogger(logger *Logger) {
	defaultLock.Lock()
	defer defaultLock.Unlock()
	defaultLogger = logger
}

func getDefaultLogger() *Logger {
	defaultLock.RLock()
	defer defaultLock.RUnlock()
	return defaultLogger
}

func SetLevel(level LogLevel) {
	logger := getDefaultLogger()
	logger.SetLevel(level)
	logger.Info("Log level set to %s", level)
}

func (l *Logger) SetLevel(level LogLevel) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.level = level
}

func (l *Logger) Level() LogLevel {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.level
}

// With returns a logger that adds the key/value pairs to every entry.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{
		backend: l.backend.With(keyvals...),
		level:   l.Level(),
	}
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if level > l.Level() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	switch level {
	case LogLevelError:
		l.backend.Log(charmlog.ErrorLevel, msg)
	case LogLevelWarn:
		l.backend.Log(charmlog.WarnLevel, msg)
	case LogLevelInfo:
		l.backend.Log(charmlog.InfoLevel, msg)
	case LogLevelDebug:
		l.backend.Log(charmlog.DebugLevel, msg)
	default:
		// charmbracelet/log has no level below debug
		l.backend.Log(charmlog.DebugLevel, msg, "trace", true)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogLevelError, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogLevelWarn, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogLevelInfo, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogLevelDebug, format, args...)
}

func (l *Logger) Trace(format string, args ...interface{}) {
	l.logf(LogLevelTrace, format, args...)
}

func Info(format string, args ...interface{}) {
	getDefaultLogger().Info(format, args...)
}

func Error(format string, args ...interface{}) {
	getDefaultLogger().Error(format, args...)
}

func Warn(format string, args ...interface{}) {
	getDefaultLogger().Warn(format, args...)
}

func Debug(format string, args ...interface{}) {
	getDefaultLogger().Debug(format, args...)
}

func Trace(format string, args ...interface{}) {
	getDefaultLogger().Trace(format, args...)
}

// Default returns the logger used by the package-level functions.
func Default() *Logger {
	return getDefaultLogger()
}
