// Package hypr drives Hyprland through hyprctl: window queries, focus and
// shortcut dispatch, and on-screen notifications.
package hypr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

const binary = "hyprctl"

// CommandError is a failed hyprctl invocation with whatever it printed.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", binary, strings.Join(e.Args, " "), e.Err)
	if e.Output != "" {
		msg += " (" + e.Output + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

func run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, binary, args...).CombinedOutput()
	if err != nil {
		return nil, &CommandError{Args: args, Output: string(bytes.TrimSpace(out)), Err: err}
	}
	return out, nil
}

// dispatch runs `hyprctl --quiet dispatch name args...`.
func dispatch(ctx context.Context, name string, args ...string) error {
	_, err := run(ctx, append([]string{"--quiet", "dispatch", name}, args...)...)
	return err
}

// query decodes the JSON form of a hyprctl info command into T.
func query[T any](ctx context.Context, what string) (T, error) {
	var v T
	out, err := run(ctx, "-j", what)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(out, &v); err != nil {
		return v, fmt.Errorf("decode %s %s: %w", binary, what, err)
	}
	return v, nil
}
