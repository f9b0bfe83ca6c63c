package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/whisperkey/internal/hypr"
	"github.com/samber/lo"
)

// HyprOptions configure clipboard commands and the paste chord for Hyprland.
type HyprOptions struct {
	ClipboardArgv     []string
	ClipboardReadArgv []string
	PasteShortcut     string
	RestoreDelay      time.Duration
}

// DefaultHyprOptions uses wl-clipboard and CTRL+V.
func DefaultHyprOptions() HyprOptions {
	return HyprOptions{
		ClipboardArgv:     []string{"wl-copy", "--trim-newline"},
		ClipboardReadArgv: []string{"wl-paste", "--no-newline"},
		PasteShortcut:     "CTRL,V",
		RestoreDelay:      150 * time.Millisecond,
	}
}

// HyprDispatcher pastes through the clipboard and hyprctl sendshortcut.
type HyprDispatcher struct {
	opts   HyprOptions
	logger *slog.Logger
}

// NewHyprDispatcher builds a HyprDispatcher.
func NewHyprDispatcher(opts HyprOptions, logger *slog.Logger) *HyprDispatcher {
	return &HyprDispatcher{opts: opts, logger: logger}
}

// SendText sets the clipboard, pastes into target, and optionally presses Enter.
// The previous clipboard is restored best-effort.
func (d *HyprDispatcher) SendText(ctx context.Context, text string, target WindowTarget, execute bool) error {
	previous, hadPrevious := d.readClipboard(ctx)

	clipboardCtx, clipboardCancel := context.WithTimeout(ctx, 2*time.Second)
	defer clipboardCancel()
	if _, err := runArgv(clipboardCtx, d.opts.ClipboardArgv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	pasteCtx, pasteCancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer pasteCancel()

	address, err := d.resolveAddress(pasteCtx, target)
	if err != nil {
		return err
	}
	payload, err := buildPasteShortcut(d.opts.PasteShortcut, address)
	if err != nil {
		return err
	}
	if err := hypr.SendShortcut(pasteCtx, payload); err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	if execute {
		if err := hypr.SendShortcut(pasteCtx, ",Return,address:"+address); err != nil {
			return fmt.Errorf("press enter: %w", err)
		}
	}

	if hadPrevious {
		d.restoreClipboard(ctx, previous)
	}
	return nil
}

// IsWindowValid reports whether target is still a mapped client.
func (d *HyprDispatcher) IsWindowValid(ctx context.Context, target WindowTarget) bool {
	if target.IsCurrentFocus() {
		return true
	}
	clients, err := hypr.QueryClients(ctx)
	if err != nil {
		d.logWarn("list hyprland clients failed", "error", err.Error())
		return false
	}
	return lo.SomeBy(clients, func(w hypr.Window) bool {
		return w.Handle() == target.Handle
	})
}

// FindWindow resolves a spoken window name to a target by case-insensitive title substring.
func (d *HyprDispatcher) FindWindow(ctx context.Context, query string) (WindowTarget, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return CurrentFocus(), nil
	}
	clients, err := hypr.QueryClients(ctx)
	if err != nil {
		return WindowTarget{}, err
	}
	match, ok := lo.Find(clients, func(w hypr.Window) bool {
		return strings.Contains(strings.ToLower(w.Title), query) || strings.ToLower(w.Class) == query
	})
	if !ok {
		return WindowTarget{}, fmt.Errorf("no window matches %q", query)
	}
	return NewWindowTarget(match.Handle(), match.Title, match.Class)
}

func (d *HyprDispatcher) resolveAddress(ctx context.Context, target WindowTarget) (string, error) {
	if target.IsCurrentFocus() {
		window, err := activeWindowWithRetry(ctx, 5, 10*time.Millisecond)
		if err != nil {
			return "", err
		}
		return window.Address, nil
	}

	address := hypr.FormatAddress(target.Handle)
	if err := hypr.FocusWindow(ctx, address); err != nil {
		return "", fmt.Errorf("focus %s: %w", target.DisplayName(), err)
	}
	return address, nil
}

func (d *HyprDispatcher) readClipboard(ctx context.Context) (string, bool) {
	if len(d.opts.ClipboardReadArgv) == 0 {
		return "", false
	}
	readCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	previous, err := runArgv(readCtx, d.opts.ClipboardReadArgv, "")
	if err != nil || previous == "" {
		return "", false
	}
	return previous, true
}

func (d *HyprDispatcher) restoreClipboard(ctx context.Context, previous string) {
	if d.opts.RestoreDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.opts.RestoreDelay):
		}
	}
	restoreCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := runArgv(restoreCtx, d.opts.ClipboardArgv, previous); err != nil {
		d.logWarn("clipboard restore failed", "error", err.Error())
	}
}

func (d *HyprDispatcher) logWarn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

func buildPasteShortcut(shortcut string, windowAddress string) (string, error) {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return "", fmt.Errorf("paste shortcut cannot be empty")
	}

	address := strings.TrimSpace(windowAddress)
	if address == "" {
		return "", fmt.Errorf("active window address is required")
	}

	return fmt.Sprintf("%s,address:%s", shortcut, address), nil
}

func activeWindowWithRetry(ctx context.Context, attempts int, delay time.Duration) (hypr.Window, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		window, err := hypr.QueryActiveWindow(ctx)
		if err == nil {
			return window, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return hypr.Window{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("active window unavailable")
	}
	return hypr.Window{}, fmt.Errorf("resolve active window: %w", lastErr)
}
