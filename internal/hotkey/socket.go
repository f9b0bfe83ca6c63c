package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rbright/whisperkey/internal/ipc"
)

var (
	// ErrNotRegistered is returned when listening starts before RegisterHotkey.
	ErrNotRegistered = errors.New("no hotkey registered")
	// ErrAlreadyListening is returned by a second StartListening.
	ErrAlreadyListening = errors.New("hotkey handler already listening")
)

// SocketHandler receives key edges as ipc press/release requests, typically
// sent by compositor keybindings running `whisperkey press` and `whisperkey release`.
// Other commands go to Fallback.
type SocketHandler struct {
	path     string
	logger   *slog.Logger
	Fallback ipc.Handler

	mu        sync.Mutex
	key       string
	onPress   Callback
	onRelease Callback
	cancel    context.CancelFunc
	done      chan error
}

// NewSocketHandler builds a handler that will own the socket at path.
func NewSocketHandler(path string, logger *slog.Logger) *SocketHandler {
	return &SocketHandler{path: path, logger: logger}
}

// RegisterHotkey sets the key and its callbacks. It replaces any previous registration.
func (h *SocketHandler) RegisterHotkey(key string, onPress Callback, onRelease Callback) error {
	normalized := NormalizeKey(key)
	if normalized == "" {
		return errors.New("hotkey must not be empty")
	}
	if onPress == nil || onRelease == nil {
		return errors.New("hotkey callbacks must not be nil")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.key = normalized
	h.onPress = onPress
	h.onRelease = onRelease
	return nil
}

// StartListening acquires the socket and serves requests in the background.
func (h *SocketHandler) StartListening(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.key == "" {
		return ErrNotRegistered
	}
	if h.cancel != nil {
		return ErrAlreadyListening
	}

	listener, err := ipc.Acquire(ctx, h.path, ipc.AcquireOptions{
		AliveTimeout: 150 * time.Millisecond,
		Retries:      2,
		Backoff:      25 * time.Millisecond,
	})
	if err != nil {
		return err
	}

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	h.cancel = cancel
	h.done = done
	go func(l net.Listener) {
		done <- ipc.Serve(serveCtx, l, h)
	}(listener)

	h.logInfo("hotkey socket listening", "socket", h.path, "key", h.key)
	return nil
}

// StopListening stops serving and removes the socket file.
func (h *SocketHandler) StopListening() error {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	err := <-done
	if rmErr := os.Remove(h.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		err = errors.Join(err, fmt.Errorf("remove socket: %w", rmErr))
	}
	return err
}

// Handle implements ipc.Handler.
func (h *SocketHandler) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandPress, ipc.CommandRelease:
	default:
		if h.Fallback != nil {
			return h.Fallback.Handle(ctx, req)
		}
		return ipc.Unknown(req.Command)
	}

	h.mu.Lock()
	key, onPress, onRelease := h.key, h.onPress, h.onRelease
	h.mu.Unlock()

	if req.Key != "" && NormalizeKey(req.Key) != key {
		return ipc.Response{OK: false, Error: fmt.Sprintf("hotkey %q is not registered (listening for %q)", req.Key, key)}
	}

	callback := onPress
	if req.Command == ipc.CommandRelease {
		callback = onRelease
	}
	if callback == nil {
		return ipc.Failure("", ErrNotRegistered)
	}
	if err := callback(ctx); err != nil {
		h.logDebug("hotkey edge rejected", "command", req.Command, "error", err.Error())
		return ipc.Failure("", err)
	}
	return ipc.Response{OK: true, Message: req.Command}
}

func (h *SocketHandler) logInfo(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}

func (h *SocketHandler) logDebug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}
