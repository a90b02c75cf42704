// Package schedule decides whether a daily time-of-day window is open.
//
// Windows are evaluated on local wall-clock time. A window whose end is
// earlier than its start spans midnight. All functions are pure.
package schedule

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (00:00 to 23:59).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustParseTimeOfDay is ParseTimeOfDay for constants and tests.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) offset() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute
}

// On returns the instant t falls on during the calendar day of ref.
func (t TimeOfDay) On(ref time.Time) time.Time {
	y, m, d := ref.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, ref.Location())
}

// sinceMidnight is the wall-clock offset of now, including seconds.
func sinceMidnight(now time.Time) time.Duration {
	return time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second +
		time.Duration(now.Nanosecond())
}

// Window is the daily interval [Start, End) during which the server runs.
//
// Start == End is never open unless AlwaysOn is set; AlwaysOn ignores
// Start and End entirely.
type Window struct {
	Start    TimeOfDay
	End      TimeOfDay
	AlwaysOn bool
}

// Overnight reports whether the window crosses midnight.
func (w Window) Overnight() bool {
	return w.Start.offset() > w.End.offset()
}

// Contains reports whether now lies inside the window.
func (w Window) Contains(now time.Time) bool {
	if w.AlwaysOn {
		return true
	}
	start, end, cur := w.Start.offset(), w.End.offset(), sinceMidnight(now)
	switch {
	case start < end:
		return cur >= start && cur < end
	case start > end:
		return cur >= start || cur < end
	default:
		return false
	}
}

// MinutesLeft returns the whole minutes until the window closes, truncated
// toward zero. ok is false when now is outside the window or the window
// never closes.
func (w Window) MinutesLeft(now time.Time) (minutes int, ok bool) {
	if w.AlwaysOn || !w.Contains(now) {
		return 0, false
	}
	return int(untilClose(w.End, now) / time.Minute), true
}

func untilClose(end TimeOfDay, now time.Time) time.Duration {
	left := end.offset() - sinceMidnight(now)
	if left <= 0 {
		left += day
	}
	return left
}

// NextTransition returns the next instant at which the window opens or
// closes after now, and whether that transition is an opening. ok is false
// for windows that never change state.
func (w Window) NextTransition(now time.Time) (at time.Time, opens bool, ok bool) {
	if w.AlwaysOn || w.Start == w.End {
		return time.Time{}, false, false
	}
	open := w.Contains(now)
	target := w.Start
	if open {
		target = w.End
	}
	at = target.On(now)
	if !at.After(now) {
		at = target.On(now.AddDate(0, 0, 1))
	}
	return at, !open, true
}

func (w Window) String() string {
	if w.AlwaysOn {
		return "always"
	}
	return w.Start.String() + "-" + w.End.String()
}
