package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningTracker_ExactMatchOnly(t *testing.T) {
	var w WarningTracker
	for _, m := range []int{11, 9, 6, 4, 2, 0, -1} {
		_, fired := w.Check(m)
		assert.False(t, fired, "minutes=%d", m)
	}
	assert.Empty(t, w.Fired())
}

func TestWarningTracker_EachThresholdOnce(t *testing.T) {
	var w WarningTracker
	var got []int
	for left := 15; left >= 0; left-- {
		// several ticks per minute
		for i := 0; i < 6; i++ {
			if mark, ok := w.Check(left); ok {
				got = append(got, mark)
			}
		}
	}
	assert.Equal(t, []int{10, 5, 1}, got)
	assert.Equal(t, []int{10, 5, 1}, w.Fired())
}

func TestWarningTracker_Reset(t *testing.T) {
	var w WarningTracker
	_, ok := w.Check(5)
	assert.True(t, ok)
	_, ok = w.Check(5)
	assert.False(t, ok)

	w.Reset()
	assert.Empty(t, w.Fired())
	mark, ok := w.Check(5)
	assert.True(t, ok)
	assert.Equal(t, 5, mark)
}

func TestAnnouncement(t *testing.T) {
	assert.Equal(t, "say Server will stop in 10 minutes!", Announcement("say", 10))
	assert.Equal(t, "say Server will stop in 1 minute!", Announcement("say", 1))
	assert.Equal(t, "Server will stop in 5 minutes!", Announcement("", 5))
}
