package main

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"StockLens/internal/config"
)

// setupLogging mirrors log output into a rotating file when log.file is set.
func setupLogging(cfg *config.Config) func() {
	if cfg.Log.File == "" {
		return func() {}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		log.Printf("[WARN] create log dir: %v, logging to stderr only", err)
		return func() {}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, lj))
	log.Printf("[INFO] logging to %s", cfg.Log.File)
	return func() {
		log.SetOutput(os.Stderr)
		lj.Close()
	}
}
