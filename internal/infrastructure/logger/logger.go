package logger

import (
	"io"
	"log/slog"
	"log/syslog"
	"os"
	"strings"
)

type Logger struct {
	*slog.Logger
}

// DefaultLogger creates a logger using slog.Default()
func DefaultLogger() *Logger {
	return &Logger{
		Logger: slog.Default(),
	}
}

// NewLogger creates a configured logger:
// - level: DEBUG, INFO, WARN, ERROR (default: INFO)
// - format: json or text (default: text)
// - output: stdout, stderr, syslog, or a file path (default: stderr)
// The syslog output is what cron mode uses; the system log is the only
// place a scheduled run can report to.
func NewLogger(level, format, output string) *Logger {
	// Default to text format if not specified
	if format == "" {
		format = "text"
	}

	// Default to stderr if not specified
	if output == "" {
		output = "stderr"
	}

	// Get output writer
	var writer io.Writer
	switch strings.ToLower(output) {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	case "syslog":
		w, err := syslog.New(syslog.LOG_ERR|syslog.LOG_DAEMON, "cwmon")
		if err != nil {
			// Fallback to stderr if syslog can't be reached
			writer = os.Stderr
		} else {
			writer = w
		}
	default:
		// File path
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Fallback to stderr if file can't be opened
			writer = os.Stderr
		} else {
			writer = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}

	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// parseLogLevel parses log level from string
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefaultLogger sets the logger as the default slog logger
func SetDefaultLogger(l *Logger) {
	slog.SetDefault(l.Logger)
}
