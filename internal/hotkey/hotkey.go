// Package hotkey turns push-to-talk key edges into press and release callbacks.
package hotkey

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is the release debounce window.
const DefaultCooldown = 500 * time.Millisecond

// Callback runs on a key edge. Its error is reported back to the edge's source.
type Callback func(ctx context.Context) error

// Handler delivers key edges for one registered hotkey.
type Handler interface {
	RegisterHotkey(key string, onPress Callback, onRelease Callback) error
	StartListening(ctx context.Context) error
	StopListening() error
}

// Debouncer drops key bounces. A release within Cooldown of the previous
// accepted release is ignored, as is a press within Cooldown of it.
type Debouncer struct {
	cooldown time.Duration

	mu          sync.Mutex
	lastRelease time.Time
}

// NewDebouncer builds a Debouncer; negative cooldowns are treated as zero.
func NewDebouncer(cooldown time.Duration) *Debouncer {
	if cooldown < 0 {
		cooldown = 0
	}
	return &Debouncer{cooldown: cooldown}
}

// AllowRelease reports whether a release at now should be acted on, and records it if so.
func (d *Debouncer) AllowRelease(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.withinCooldown(now) {
		return false
	}
	d.lastRelease = now
	return true
}

// AllowPress reports whether a press at now is outside the cooldown of the last release.
func (d *Debouncer) AllowPress(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.withinCooldown(now)
}

// Cooldown returns the configured window.
func (d *Debouncer) Cooldown() time.Duration {
	return d.cooldown
}

func (d *Debouncer) withinCooldown(now time.Time) bool {
	return !d.lastRelease.IsZero() && now.Sub(d.lastRelease) < d.cooldown
}

// NormalizeKey lowercases and collapses separators so "Right_Ctrl" matches "right ctrl".
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.NewReplacer("_", " ", "-", " ", "+", " + ").Replace(key)
	return strings.Join(strings.Fields(key), " ")
}
