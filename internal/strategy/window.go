package strategy

import (
	"fmt"
	"sort"
	"time"
)

// MinuteWindow gates betting to a set of minutes of the hour. An empty window
// allows every minute.
type MinuteWindow struct {
	minutes [60]bool
	any     bool
}

// NewMinuteWindow builds a window from minute values in [0, 59].
func NewMinuteWindow(minutes []int) (MinuteWindow, error) {
	var w MinuteWindow
	for _, m := range minutes {
		if m < 0 || m > 59 {
			return MinuteWindow{}, fmt.Errorf("strategy: minute %d out of range [0, 59]", m)
		}
		w.minutes[m] = true
		w.any = true
	}
	return w, nil
}

// Allows reports whether bets may be placed at t.
func (w MinuteWindow) Allows(t time.Time) bool {
	if !w.any {
		return true
	}
	return w.minutes[t.Minute()]
}

// Minutes returns the allowed minutes in ascending order.
func (w MinuteWindow) Minutes() []int {
	var out []int
	for m, ok := range w.minutes {
		if ok {
			out = append(out, m)
		}
	}
	sort.Ints(out)
	return out
}
