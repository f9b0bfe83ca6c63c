package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// ErrTargetUnsupported is returned when a backend can only type into the focused window.
var ErrTargetUnsupported = errors.New("backend only supports the focused window")

type clipboardAccess interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type keyPresser interface {
	Press(ctrl bool, key int) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// uinputKeys injects key chords through a virtual keyboard device.
type uinputKeys struct {
	kb keybd_event.KeyBonding
}

func (u *uinputKeys) Press(ctrl bool, key int) error {
	u.kb.Clear()
	u.kb.HasCTRL(ctrl)
	u.kb.SetKeys(key)
	return u.kb.Launching()
}

// KeybdDispatcher pastes into the focused window with a synthesized Ctrl+V.
// It works outside Hyprland but cannot address specific windows.
type KeybdDispatcher struct {
	clip         clipboardAccess
	keys         keyPresser
	settle       time.Duration
	restoreDelay time.Duration
	logger       *slog.Logger

	mu sync.Mutex
}

// NewKeybdDispatcher creates the virtual keyboard. The kernel needs a moment
// before a fresh uinput device accepts events.
func NewKeybdDispatcher(logger *slog.Logger) (*KeybdDispatcher, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	time.Sleep(500 * time.Millisecond)
	return newKeybdDispatcher(systemClipboard{}, &uinputKeys{kb: kb}, logger), nil
}

func newKeybdDispatcher(clip clipboardAccess, keys keyPresser, logger *slog.Logger) *KeybdDispatcher {
	return &KeybdDispatcher{
		clip:         clip,
		keys:         keys,
		settle:       80 * time.Millisecond,
		restoreDelay: 120 * time.Millisecond,
		logger:       logger,
	}
}

// SendText writes text to the clipboard, presses Ctrl+V, then Enter when execute is set.
func (d *KeybdDispatcher) SendText(ctx context.Context, text string, target WindowTarget, execute bool) error {
	if !target.IsCurrentFocus() {
		return ErrTargetUnsupported
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	previous, readErr := d.clip.ReadAll()
	if err := d.clip.WriteAll(text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	if err := sleepContext(ctx, d.settle); err != nil {
		return err
	}

	if err := d.keys.Press(true, keybd_event.VK_V); err != nil {
		return fmt.Errorf("press ctrl+v: %w", err)
	}
	if execute {
		if err := d.keys.Press(false, keybd_event.VK_ENTER); err != nil {
			return fmt.Errorf("press enter: %w", err)
		}
	}

	if readErr == nil && previous != "" {
		if err := sleepContext(ctx, d.restoreDelay); err == nil {
			if err := d.clip.WriteAll(previous); err != nil && d.logger != nil {
				d.logger.Warn("clipboard restore failed", "error", err.Error())
			}
		}
	}
	return nil
}

// IsWindowValid accepts only the focused window.
func (d *KeybdDispatcher) IsWindowValid(_ context.Context, target WindowTarget) bool {
	return target.IsCurrentFocus()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
