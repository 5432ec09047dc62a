// Package logging sets up the process logger and carries it through contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the root logger.
type Config struct {
	Level  string
	Format string // "console" or "json"
	File   FileConfig
}

// FileConfig enables an additional rotated log file.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Logger is a zerolog logger with error wrapping helpers.
type Logger struct {
	zerolog.Logger
}

// New builds the root logger. The returned closer flushes the log file, if any.
func New(cfg Config, stderr io.Writer) (Logger, io.Closer, error) {
	if stderr == nil {
		stderr = os.Stderr
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return Logger{}, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	var console io.Writer
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05"}
	case "json":
		console = stderr
	default:
		return Logger{}, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	writer := console
	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return Logger{}, nil, fmt.Errorf("log file enabled but no path configured")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0o700); err != nil {
			return Logger{}, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		}
		closer = file
		// the file always receives JSON, whatever the console format
		writer = zerolog.MultiLevelWriter(console, file)
	}

	zl := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return Logger{zl}, closer, nil
}

// Default returns an info level console logger on stderr.
func Default() Logger {
	return Logger{zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return Logger{zerolog.Nop()}
}

// SetDefault makes log the fallback for contexts that carry no logger.
func SetDefault(log Logger) {
	l := log.Logger
	zerolog.DefaultContextLogger = &l
}

// WithCtx attaches log to ctx.
func WithCtx(ctx context.Context, log Logger) context.Context {
	return log.Logger.WithContext(ctx)
}

// FromCtx returns the logger carried by ctx, the default logger, or a
// disabled logger when neither exists.
func FromCtx(ctx context.Context) Logger {
	return Logger{*zerolog.Ctx(ctx)}
}

// CtxWithFields returns a context whose logger carries the given fields.
func CtxWithFields(ctx context.Context, fields map[string]any) context.Context {
	l := zerolog.Ctx(ctx).With().Fields(fields).Logger()
	return l.WithContext(ctx)
}

// WrapErr logs err at error level and returns it wrapped with msg.
func (l Logger) WrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	l.Error().Err(err).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrf is WrapErr with a formatted message.
func (l Logger) WrapErrf(err error, format string, args ...any) error {
	return l.WrapErr(err, fmt.Sprintf(format, args...))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
