// Package logger writes structured logs to a dated file. Nothing is written
// until Init enables it, so the terminal UI is never disturbed.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L discards everything until Init is called with Enabled set.
var L = slog.New(slog.DiscardHandler)

const (
	logPrefix     = "keybox-"
	logSuffix     = ".log"
	retentionDays = 30
)

type Options struct {
	Enabled bool
	Dir     string // default ~/.keybox/logs
	Level   string // debug, info, warn or error
}

// ParseLevel maps a config string to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init configures L. The returned closer releases the log file.
func Init(opts Options) (io.Closer, error) {
	if !opts.Enabled {
		L = slog.New(slog.DiscardHandler)
		return nopCloser{}, nil
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	dir := opts.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".keybox", "logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	cleanOldLogs(dir, time.Now())

	name := filepath.Join(dir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	L = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return f, nil
}

// cleanOldLogs removes log files older than retentionDays. Best effort.
func cleanOldLogs(dir string, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix))
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			os.Remove(filepath.Join(dir, name))
		}
	}
}
