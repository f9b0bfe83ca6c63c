package audio

import (
	"context"
	"time"
)

// DefaultWatchdogInterval is how often the watchdog polls elapsed recording time.
const DefaultWatchdogInterval = 100 * time.Millisecond

// Watchdog fires OnMax once when Elapsed reaches Max.
type Watchdog struct {
	Interval time.Duration
	Max      time.Duration
	Elapsed  func() time.Duration
	OnMax    func()
}

// Run polls until the limit is hit or ctx is done. It reports whether OnMax fired.
func (w Watchdog) Run(ctx context.Context) bool {
	if w.Max <= 0 || w.Elapsed == nil {
		return false
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultWatchdogInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if w.Elapsed() < w.Max {
				continue
			}
			if w.OnMax != nil {
				w.OnMax()
			}
			return true
		}
	}
}
