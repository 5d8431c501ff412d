// Package logger configures the process-wide logrus logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/junsooki/moodballoon/internal/config"
)

// Init sets level, format and outputs from cfg. It returns a close function
// for the log file, which is a no-op when no file is configured.
func Init(cfg config.LogConfig) (func() error, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Invalid log level %q, defaulting to info: %v", cfg.Level, err)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	writers := []io.Writer{os.Stdout}
	closeFn := func() error { return nil }

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			log.SetOutput(os.Stdout)
			return closeFn, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			log.SetOutput(os.Stdout)
			return closeFn, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
		closeFn = file.Close
	}

	log.SetOutput(io.MultiWriter(writers...))
	log.Debugf("Logger initialized (level=%s)", level)
	return closeFn, nil
}
