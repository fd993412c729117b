package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output string // stdout, file
	File   string // file path if Output is "file"

	// Rotation settings, only used when Output is "file"
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup initializes the global logger
func Setup(cfg Config) error {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set output writer
	var writer io.Writer
	switch cfg.Output {
	case "file":
		if cfg.File == "" {
			cfg.File = "saas.log"
		}
		writer = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    positiveOr(cfg.MaxSizeMB, 50),
			MaxBackups: positiveOr(cfg.MaxBackups, 5),
			MaxAge:     positiveOr(cfg.MaxAgeDays, 30),
			Compress:   true,
		}
	default:
		writer = os.Stdout
	}

	// Set format
	if cfg.Format == "text" {
		writer = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.RFC3339,
		}
	}

	// Configure global logger
	log.Logger = zerolog.New(writer).With().Timestamp().Caller().Logger()

	return nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Get returns the global logger
func Get() *zerolog.Logger {
	return &log.Logger
}

// Info logs an info message
func Info(msg string) {
	log.Info().Msg(msg)
}

// Debug logs a debug message
func Debug(msg string) {
	log.Debug().Msg(msg)
}

// Error logs an error message
func Error(msg string) {
	log.Error().Msg(msg)
}

// Warn logs a warning message
func Warn(msg string) {
	log.Warn().Msg(msg)
}

// Fatal logs a fatal message and exits
func Fatal(msg string) {
	log.Fatal().Msg(msg)
}

// InfoEvent returns an info event for chaining
func InfoEvent() *zerolog.Event {
	return log.Info()
}

// DebugEvent returns a debug event for chaining
func DebugEvent() *zerolog.Event {
	return log.Debug()
}

// ErrorEvent returns an error event for chaining
func ErrorEvent() *zerolog.Event {
	return log.Error()
}

// WarnEvent returns a warning event for chaining
func WarnEvent() *zerolog.Event {
	return log.Warn()
}

// WithField returns a logger with additional field
func WithField(key string, value interface{}) *zerolog.Logger {
	logger := log.With().Interface(key, value).Logger()
	return &logger
}
