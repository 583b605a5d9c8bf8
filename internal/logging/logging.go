// Package logging wires the standard logger to stderr and, optionally, a
// size-rotated file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"movietrack/config"
)

// Setup points the standard logger at stderr and the configured file. The
// returned closer flushes and closes the file; it is a no-op without one.
func Setup(fsys afero.Fs, settings config.LogSettings) (io.Closer, error) {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.LUTC)

	if settings.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	dir := filepath.Dir(settings.File)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}

	rotator := &lumberjack.Logger{
		Filename:   settings.File,
		MaxSize:    settings.MaxSizeMB,
		MaxBackups: settings.MaxBackups,
		MaxAge:     settings.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	log.Printf("[logging] writing logs to %s (max %dMB x %d)", settings.File, settings.MaxSizeMB, settings.MaxBackups)
	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
