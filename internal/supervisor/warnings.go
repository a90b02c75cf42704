package supervisor

import (
	"fmt"
	"strings"
)

// WarningThresholds are the minutes-left marks announced before a
// scheduled stop, highest first.
var WarningThresholds = [3]int{10, 5, 1}

// WarningTracker remembers which countdown announcements went out during
// the current run of the server.
type WarningTracker struct {
	fired [len(WarningThresholds)]bool
}

// Check fires the first unannounced threshold equal to minutesLeft and
// marks it. At most one threshold fires per call.
func (w *WarningTracker) Check(minutesLeft int) (int, bool) {
	for i, mark := range WarningThresholds {
		if minutesLeft == mark && !w.fired[i] {
			w.fired[i] = true
			return mark, true
		}
	}
	return 0, false
}

// Reset clears every mark. Called when a new run starts.
func (w *WarningTracker) Reset() {
	w.fired = [len(WarningThresholds)]bool{}
}

// Fired lists the thresholds already announced this run.
func (w *WarningTracker) Fired() []int {
	var out []int
	for i, mark := range WarningThresholds {
		if w.fired[i] {
			out = append(out, mark)
		}
	}
	return out
}

// Announcement builds the console command announcing a stop in minutes.
func Announcement(command string, minutes int) string {
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return strings.TrimSpace(fmt.Sprintf("%s Server will stop in %d %s!", command, minutes, unit))
}
