// Package logwriter provides per-package build logs with file rotation.
package logwriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bnema/gatekeeper/pkg/validation"
)

// Config holds the configuration for the log writer.
type Config struct {
	// Dir is the directory where build logs are stored.
	Dir string
	// MaxSize is the maximum size in megabytes before rotation.
	MaxSize int
	// MaxBackups is the number of old log files to retain.
	MaxBackups int
	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int
}

// LogWriter hands out rotated log files named after the service UUID.
type LogWriter struct {
	config Config
	open   map[string]*buildLog
	mu     sync.Mutex
}

// New creates a new LogWriter.
func New(config Config) (*LogWriter, error) {
	if err := os.MkdirAll(config.Dir, 0o700); err != nil {
		return nil, err
	}
	return &LogWriter{
		config: config,
		open:   make(map[string]*buildLog),
	}, nil
}

// Path returns the log file of serviceUUID.
func (w *LogWriter) Path(serviceUUID string) string {
	return filepath.Join(w.config.Dir, serviceUUID+".log")
}

// Open returns the build log of serviceUUID. Opening a log that is already
// open returns the same writer.
func (w *LogWriter) Open(serviceUUID string) (io.WriteCloser, error) {
	if err := validation.ValidateUUID(serviceUUID); err != nil {
		return nil, fmt.Errorf("invalid build log id: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if l, ok := w.open[serviceUUID]; ok {
		l.refs++
		return l, nil
	}

	l := &buildLog{
		id:    serviceUUID,
		owner: w,
		refs:  1,
		logger: &lumberjack.Logger{
			Filename:   w.Path(serviceUUID),
			MaxSize:    w.config.MaxSize,
			MaxBackups: w.config.MaxBackups,
			MaxAge:     w.config.MaxAge,
			Compress:   true,
		},
	}
	w.open[serviceUUID] = l
	return l, nil
}

// Close closes every open build log.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	for id, l := range w.open {
		if err := l.logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(w.open, id)
	}
	return firstErr
}

type buildLog struct {
	id     string
	owner  *LogWriter
	refs   int
	logger *lumberjack.Logger
}

func (l *buildLog) Write(p []byte) (int, error) {
	return l.logger.Write(p)
}

func (l *buildLog) Close() error {
	w := l.owner
	w.mu.Lock()
	defer w.mu.Unlock()

	l.refs--
	if l.refs > 0 {
		return nil
	}
	if w.open[l.id] == l {
		delete(w.open, l.id)
	}
	return l.logger.Close()
}
