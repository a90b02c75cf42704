package supervisor

import (
	"context"
	"time"
)

// Handle is a running server process as seen by the loop.
type Handle interface {
	PID() int
	// SendLine writes a command to the server console. Best effort.
	SendLine(text string) error
	// Exited polls without blocking. An error is treated as exited.
	Exited() (bool, error)
	// Wait blocks until the process exits or ctx is done.
	Wait(ctx context.Context) error
	Terminate() error
	Kill() error
}

// Spawner starts a new server process.
type Spawner interface {
	Spawn() (Handle, error)
}

// SpawnFunc adapts a function to Spawner.
type SpawnFunc func() (Handle, error)

func (f SpawnFunc) Spawn() (Handle, error) { return f() }

// exitCoder is implemented by handles that know how their process ended.
type exitCoder interface {
	ExitCode() int
}

// Clock supplies wall-clock time and timers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the local wall clock.
var SystemClock Clock = systemClock{}
