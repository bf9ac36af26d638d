// Package logger builds the zerolog logger used across freshsmith.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/amosWeiskopf/freshsmith/internal/config"
)

const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 3
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger writing to stderr and, when configured, to a rotated
// log file. The returned closer releases the log file.
func New(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit console destination
func NewWithWriter(cfg config.LoggingConfig, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	writers := []io.Writer{consoleWriter(cfg.Format, console)}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log directory: %w", err)
		}
		// Files always get JSON lines, whatever the console format
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			LocalTime:  true,
		}
		writers = append(writers, file)
		closer = file
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger(), closer, nil
}

// ParseLevel parses a level name, defaulting to info when empty
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func consoleWriter(format string, out io.Writer) io.Writer {
	if strings.EqualFold(format, "json") {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
}
