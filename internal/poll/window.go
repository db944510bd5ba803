package poll

import "time"

// Window bounds a time-windowed query. A zero bound is open; a window with
// both bounds zero tails live data.
type Window struct {
	MinTime time.Time
	MaxTime time.Time
}

// Live reports whether the window tails live data.
func (w Window) Live() bool {
	return w.MinTime.IsZero() && w.MaxTime.IsZero()
}

// Effective returns the bounds to send for a fetch issued at now. A live
// window asks for the broadest history up to now.
func (w Window) Effective(now time.Time) Window {
	if w.Live() {
		return Window{MaxTime: now}
	}
	return w
}

// Contains reports whether t falls inside the window. Open bounds always match.
func (w Window) Contains(t time.Time) bool {
	if !w.MinTime.IsZero() && t.Before(w.MinTime) {
		return false
	}
	if !w.MaxTime.IsZero() && t.After(w.MaxTime) {
		return false
	}
	return true
}
