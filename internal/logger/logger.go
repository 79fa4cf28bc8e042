// Package logger builds the process zerolog logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/h0rv/flowcanvas/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a console logger in dev and a JSON logger otherwise, writing to stderr.
// When cfg.LogFile is set, output goes to that rotated file instead.
func New(cfg config.Config) zerolog.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = fileWriter(cfg.LogFile)
	}
	return build(cfg, out)
}

func build(cfg config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Env == "dev" && cfg.LogFile == "" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
		logger = zerolog.New(out).With().Timestamp().Logger()
	}
	logger = logger.Level(level)
	log.Logger = logger
	return logger
}

func fileWriter(path string) io.Writer {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
}
