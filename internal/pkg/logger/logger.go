package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the global logger.
type Config struct {
	Level  string // debug, info, warn, error
	File   string // optional rotating log file, in addition to stderr
	Prefix string
}

var defaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Level:           log.InfoLevel,
})

// Init replaces the global logger. It is safe to call once at startup.
func Init(cfg Config) *log.Logger {
	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = log.InfoLevel
	}

	var writer io.Writer = os.Stderr
	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	defaultLogger = log.NewWithOptions(writer, log.Options{
		ReportTimestamp: true,
		ReportCaller:    level == log.DebugLevel,
		Level:           level,
		Prefix:          cfg.Prefix,
	})
	return defaultLogger
}

// Default returns the global logger for structured key/value logging.
func Default() *log.Logger {
	return defaultLogger
}

// SetOutput redirects the global logger, mostly for tests.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

func Debug(format string, v ...interface{}) { defaultLogger.Debugf(format, v...) }
func Info(format string, v ...interface{})  { defaultLogger.Infof(format, v...) }
func Warn(format string, v ...interface{})  { defaultLogger.Warnf(format, v...) }
func Error(format string, v ...interface{}) { defaultLogger.Errorf(format, v...) }
func Fatal(format string, v ...interface{}) { defaultLogger.Fatalf(format, v...) }

// Infow logs msg with alternating key/value pairs.
func Infow(msg string, keyvals ...interface{})  { defaultLogger.Info(msg, keyvals...) }
func Warnw(msg string, keyvals ...interface{})  { defaultLogger.Warn(msg, keyvals...) }
func Errorw(msg string, keyvals ...interface{}) { defaultLogger.Error(msg, keyvals...) }
