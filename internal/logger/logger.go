package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/pbaille/cfaprep/internal/config"
)

// Logger is the logging interface used across the service
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type slogLogger struct {
	logger *slog.Logger
}

// New builds a console or rotating-file logger from settings
func New(settings *config.LoggerSettings) (Logger, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := &slog.HandlerOptions{Level: parseLevel(settings.LogLevel)}

	switch settings.LogType {
	case config.LogTypeConsole:
		return &slogLogger{logger: slog.New(slog.NewTextHandler(os.Stdout, opts))}, nil
	case config.LogTypeFile:
		writer := &lumberjack.Logger{
			Filename:   settings.FilePath,
			MaxSize:    settings.MaxSize,
			MaxBackups: settings.MaxBackups,
			MaxAge:     settings.MaxAge,
			Compress:   true,
		}
		return &slogLogger{logger: slog.New(slog.NewJSONHandler(writer, opts))}, nil
	default:
		return nil, fmt.Errorf("unsupported log type: %s", settings.LogType)
	}
}

// NewWriter logs JSON lines to w; used by tests and the mcp stdio mode
func NewWriter(w io.Writer, level string) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	return &slogLogger{logger: slog.New(slog.NewJSONHandler(w, opts))}
}

// Nop discards everything
func Nop() Logger {
	return NewWriter(io.Discard, config.LogLevelError)
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

func parseLevel(level string) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelInfo:
		return slog.LevelInfo
	case config.LogLevelWarning:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
