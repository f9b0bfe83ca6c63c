// Package output delivers accepted transcriptions to a window.
package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// WindowTarget names where text goes. The zero value is the current focus.
type WindowTarget struct {
	Handle  uint64
	Title   string
	Process string
}

// CurrentFocus targets whatever window has focus at dispatch time.
func CurrentFocus() WindowTarget {
	return WindowTarget{Title: "Current Focus"}
}

// NewWindowTarget builds a target for one specific window.
func NewWindowTarget(handle uint64, title string, process string) (WindowTarget, error) {
	if handle == 0 {
		return WindowTarget{}, errors.New("window handle must be positive")
	}
	if strings.TrimSpace(title) == "" {
		return WindowTarget{}, errors.New("window title cannot be empty")
	}
	return WindowTarget{Handle: handle, Title: title, Process: process}, nil
}

// IsCurrentFocus reports whether t defers to the focused window.
func (t WindowTarget) IsCurrentFocus() bool {
	return t.Handle == 0
}

// Equal compares handle and title.
func (t WindowTarget) Equal(other WindowTarget) bool {
	return t.Handle == other.Handle && t.Title == other.Title
}

// DisplayName is a short label for logs and status output.
func (t WindowTarget) DisplayName() string {
	if t.IsCurrentFocus() {
		return "Current Focus (Default)"
	}
	return lo.Ellipsis(t.Title, 60)
}

func (t WindowTarget) String() string {
	if t.IsCurrentFocus() {
		return "WindowTarget(Current Focus)"
	}
	return fmt.Sprintf("WindowTarget(handle=%d, title=%q)", t.Handle, t.DisplayName())
}
