package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Device is one input-capable capture source.
type Device struct {
	ID        string
	Name      string
	State     string
	Available bool
	Muted     bool
	Default   bool
}

// Label is the display name, falling back to the ID.
func (d Device) Label() string {
	if strings.TrimSpace(d.Name) != "" {
		return d.Name
	}
	return d.ID
}

// Lister enumerates raw backend devices.
type Lister func(context.Context) ([]Device, error)

var aliasMarkers = []string{"mapper", "primary"}

// FilterDevices drops software alias devices and keeps the first device per display name.
func FilterDevices(devices []Device) []Device {
	kept := lo.Reject(devices, func(d Device, _ int) bool {
		label := strings.ToLower(d.Label())
		return lo.SomeBy(aliasMarkers, func(marker string) bool {
			return strings.Contains(label, marker)
		})
	})
	return lo.UniqBy(kept, func(d Device) string {
		return d.Label()
	})
}

// ListDevices lists devices through list and applies FilterDevices.
func ListDevices(ctx context.Context, list Lister) ([]Device, error) {
	devices, err := list(ctx)
	if err != nil {
		return nil, err
	}
	return FilterDevices(devices), nil
}

// Selection is the resolved capture source plus an optional fallback warning.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// SelectDevice resolves input/fallback preferences against live devices.
func SelectDevice(ctx context.Context, list Lister, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx, list)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	input = normalizeQuery(input)
	fallback = normalizeQuery(fallback)

	defaultDevice, hasDefault := lo.Find(devices, func(d Device) bool { return d.Default })
	find := func(term string) (Device, bool) {
		if term == "" {
			if hasDefault {
				return defaultDevice, true
			}
			return devices[0], true
		}
		return lo.Find(devices, func(d Device) bool { return deviceMatches(d, term) })
	}

	primary, ok := find(input)
	if !ok {
		return Selection{}, fmt.Errorf("audio.device %q did not match any device", input)
	}
	if usable(primary) {
		return Selection{Device: primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}

	alt, ok := find(fallback)
	if !ok {
		return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, reason, fallback)
	}
	if !usable(alt) {
		return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q is not usable", primary.ID, reason, alt.ID)
	}

	return Selection{
		Device:   alt,
		Warning:  fmt.Sprintf("audio.device %q is %s; falling back to %q", primary.ID, reason, alt.ID),
		Fallback: alt.ID != primary.ID,
	}, nil
}

func usable(d Device) bool {
	return d.Available && !d.Muted
}

func normalizeQuery(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "default" {
		return ""
	}
	return term
}

// deviceMatches reports whether term matches a device id or name.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Name), term)
}
