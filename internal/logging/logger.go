// Package logging configures the JSONL log file every whisperkey command writes to.
package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// LevelEnv overrides the log level (debug, info, warn, error).
	LevelEnv = "WHISPERKEY_LOG_LEVEL"

	logName = "log.jsonl"

	// DefaultMaxBytes is the size at which the log is rotated to log.jsonl.1.
	DefaultMaxBytes = 8 << 20
)

// Runtime is an open log sink. Close releases the file.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	Level  slog.Level
	file   *os.File
}

func (r Runtime) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Options configures Open. Zero values pick the defaults used by New.
type Options struct {
	Dir      string
	Level    slog.Level
	MaxBytes int64
}

// New opens $XDG_STATE_HOME/whisperkey/log.jsonl at the level named by
// $WHISPERKEY_LOG_LEVEL.
func New() (Runtime, error) {
	level, err := ParseLevel(os.Getenv(LevelEnv))
	if err != nil {
		return Runtime{}, err
	}
	dir, err := stateDir()
	if err != nil {
		return Runtime{}, err
	}
	return Open(Options{Dir: dir, Level: level})
}

// Open appends to Dir/log.jsonl, rotating it first when it has grown past
// MaxBytes. Only one previous generation is kept.
func Open(opts Options) (Runtime, error) {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return Runtime{}, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(opts.Dir, logName)
	if err := rotate(path, opts.MaxBytes); err != nil {
		return Runtime{}, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Runtime{}, fmt.Errorf("open log: %w", err)
	}

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.Level})
	return Runtime{
		Logger: slog.New(handler).With("pid", os.Getpid()),
		Path:   path,
		Level:  opts.Level,
		file:   f,
	}, nil
}

func rotate(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() < maxBytes) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("rotate log: %w", err)
	}
	return nil
}

// ParseLevel maps a level name to slog.Level; empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%s: unknown log level %q", LevelEnv, name)
}

// stateDir is $XDG_STATE_HOME/whisperkey, falling back to ~/.local/state.
func stateDir() (string, error) {
	base := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve log dir: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "whisperkey"), nil
}
