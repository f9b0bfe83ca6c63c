package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning is returned by Acquire when another listener answers on the socket.
var ErrAlreadyRunning = errors.New("whisperkey is already listening")

const socketName = "whisperkey.sock"

// RuntimeSocketPath returns $XDG_RUNTIME_DIR/whisperkey.sock.
func RuntimeSocketPath() (string, error) {
	dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if dir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(dir, socketName), nil
}

// AcquireOptions controls how Acquire treats an existing socket file.
type AcquireOptions struct {
	// AliveTimeout is how long a current owner has to answer a status request.
	AliveTimeout time.Duration
	// Retries is the number of extra bind attempts after reclaiming a stale socket.
	Retries int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

// Acquire binds a unix socket at path with mode 0600. A socket file whose owner
// is gone is removed and the bind retried; one whose owner answers yields
// ErrAlreadyRunning. When the owner neither answers nor refuses, the file is
// left alone and an error returned.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}

	for attempt := 0; ; attempt++ {
		l, err := listen(path)
		if err == nil || !errors.Is(err, syscall.EADDRINUSE) {
			return l, err
		}
		if err := reclaim(ctx, path, opts.AliveTimeout); err != nil {
			return nil, err
		}
		if attempt >= opts.Retries {
			return nil, fmt.Errorf("acquire socket %s: still in use after %d retries", path, opts.Retries)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Backoff * time.Duration(attempt+1)):
		}
	}
}

func listen(path string) (net.Listener, error) {
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen unix %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return l, nil
}

// reclaim removes path if nothing is serving on it.
func reclaim(ctx context.Context, path string, aliveTimeout time.Duration) error {
	alive, err := Client{Path: path, Timeout: aliveTimeout}.Alive(ctx)
	if alive {
		return ErrAlreadyRunning
	}
	if err != nil {
		return fmt.Errorf("existing socket %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}
