package supervisor

import (
	"sync/atomic"
	"time"
)

// Phase is the server lifecycle as the loop sees it.
type Phase string

const (
	PhaseStopped  Phase = "stopped"
	PhaseRunning  Phase = "running"
	PhaseCooldown Phase = "cooldown"
)

// Action is what a single tick did. At most one action happens per tick.
type Action string

const (
	ActionNone        Action = "none"
	ActionSpawn       Action = "spawn"
	ActionSpawnFailed Action = "spawn_failed"
	ActionStop        Action = "stop"
	ActionWarn        Action = "warn"
	ActionCooldown    Action = "cooldown"
)

// StopMode records how a stop sequence ended.
type StopMode string

const (
	StopGraceful   StopMode = "graceful"
	StopTerminated StopMode = "terminated"
	StopKilled     StopMode = "killed"
	StopAbandoned  StopMode = "abandoned"
)

// Status is a read-only snapshot published after every tick.
type Status struct {
	Time       time.Time `json:"time"`
	Window     string    `json:"window"`
	WindowOpen bool      `json:"window_open"`
	Phase      Phase     `json:"phase"`
	LastAction Action    `json:"last_action"`

	RunID     string    `json:"run_id,omitempty"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`

	// MinutesLeft is -1 when the window is closed or never closes.
	MinutesLeft    int       `json:"minutes_left"`
	WarningsSent   []int     `json:"warnings_sent,omitempty"`
	NextTransition time.Time `json:"next_transition,omitempty"`
	NextOpens      bool      `json:"next_opens"`

	RecentStarts  int       `json:"recent_starts"`
	RestartsAfter time.Time `json:"restarts_after,omitempty"`

	Starts  int `json:"starts"`
	Crashes int `json:"crashes"`
}

// Board holds the latest Status for concurrent readers such as the
// dashboard and the status endpoint.
type Board struct {
	v atomic.Pointer[Status]
}

func (b *Board) Publish(s Status) {
	b.v.Store(&s)
}

// Load returns the latest snapshot. ok is false before the first tick.
func (b *Board) Load() (Status, bool) {
	s := b.v.Load()
	if s == nil {
		return Status{}, false
	}
	return *s, true
}
