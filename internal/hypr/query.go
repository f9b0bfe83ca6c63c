package hypr

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// Window is the subset of a hyprctl client record used for targeting.
type Window struct {
	Address      string `json:"address"`
	Title        string `json:"title"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
	PID          int    `json:"pid"`
	Mapped       bool   `json:"mapped"`
}

// Handle is the numeric form of Address, 0 when unparsable.
func (w Window) Handle() uint64 {
	return ParseAddress(w.Address)
}

func (w Window) normalize() Window {
	for _, f := range []*string{&w.Address, &w.Title, &w.Class, &w.InitialClass} {
		*f = strings.TrimSpace(*f)
	}
	return w
}

// ParseAddress reads a hex window address with or without the 0x prefix.
func ParseAddress(address string) uint64 {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(address), "0x"), 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatAddress renders a handle the way hyprctl prints addresses.
func FormatAddress(handle uint64) string {
	return "0x" + strconv.FormatUint(handle, 16)
}

// QueryActiveWindow returns the focused window.
func QueryActiveWindow(ctx context.Context) (Window, error) {
	w, err := query[Window](ctx, "activewindow")
	if err != nil {
		return Window{}, err
	}
	w = w.normalize()
	if w.Address == "" {
		return Window{}, errors.New("hyprctl activewindow: no focused window (empty address)")
	}
	return w, nil
}

// QueryClients lists mapped windows that have an address.
func QueryClients(ctx context.Context) ([]Window, error) {
	clients, err := query[[]Window](ctx, "clients")
	if err != nil {
		return nil, err
	}
	mapped := clients[:0]
	for _, c := range clients {
		if c = c.normalize(); c.Mapped && c.Address != "" {
			mapped = append(mapped, c)
		}
	}
	return mapped, nil
}

// FocusWindow focuses the window at address.
func FocusWindow(ctx context.Context, address string) error {
	if address = strings.TrimSpace(address); address == "" {
		return errors.New("focus window: empty address")
	}
	return dispatch(ctx, "focuswindow", "address:"+address)
}

// SendShortcut dispatches a sendshortcut payload such as "CTRL,V,address:0x1".
func SendShortcut(ctx context.Context, shortcut string) error {
	if shortcut = strings.TrimSpace(shortcut); shortcut == "" {
		return errors.New("send shortcut: empty payload")
	}
	return dispatch(ctx, "sendshortcut", shortcut)
}

// Notification is one hyprctl notify call.
type Notification struct {
	Icon    int
	Timeout int // milliseconds
	Color   string
	Text    string
}

const defaultNotifyColor = "rgb(89b4fa)"

// Notify shows n on screen.
func Notify(ctx context.Context, n Notification) error {
	color := strings.TrimSpace(n.Color)
	if color == "" {
		color = defaultNotifyColor
	}
	return dispatch(ctx, "notify", strconv.Itoa(n.Icon), strconv.Itoa(n.Timeout), color, n.Text)
}

// DismissNotify clears every visible notification.
func DismissNotify(ctx context.Context) error {
	return dispatch(ctx, "dismissnotify")
}
