// Package supervisor keeps a single server process running inside a daily
// time window.
//
// The Loop polls on a fixed interval. Each tick checks whether the server
// is alive and whether the window is open, then takes at most one action:
// start the server, stop it, announce an upcoming stop on its console, or
// sit out a cooldown after a crash loop. All loop state lives in the Loop
// value and is touched only by the goroutine running it; other components
// observe it through published Status snapshots.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frontendtony/curfew/internal/notify"
	"github.com/frontendtony/curfew/internal/schedule"
	"github.com/google/uuid"
)

const (
	// PollInterval must stay under a minute so every whole minute-left
	// value is observed at least once.
	PollInterval = 10 * time.Second
	// CooldownInterval is how long the loop waits after detecting a crash loop.
	CooldownInterval = 60 * time.Second
)

// ErrPollInterval is returned by New for intervals of a minute or more.
var ErrPollInterval = errors.New("poll interval must be shorter than one minute")

// Options configures a Loop. Zero values take the package defaults.
type Options struct {
	Window   schedule.Window
	Spawner  Spawner
	Notifier notify.Notifier

	StopCommand     string
	AnnounceCommand string
	// StopTimeout bounds the wait after StopCommand before SIGTERM;
	// KillGrace bounds the wait after SIGTERM and after SIGKILL.
	StopTimeout time.Duration
	KillGrace   time.Duration

	PollInterval     time.Duration
	CooldownInterval time.Duration
	CrashHorizon     time.Duration
	CrashThreshold   int

	Clock     Clock
	Logger    *slog.Logger
	Metrics   Metrics
	Observers []func(Status)
}

// Step is the outcome of one tick: the action taken and how long to wait
// before the next tick.
type Step struct {
	Action Action
	Next   time.Duration
}

// Loop is the supervision state machine.
type Loop struct {
	window    schedule.Window
	spawner   Spawner
	notifier  notify.Notifier
	clock     Clock
	log       *slog.Logger
	metrics   Metrics
	observers []func(Status)

	stopCommand     string
	announceCommand string
	stopTimeout     time.Duration
	killGrace       time.Duration
	poll            time.Duration
	cooldown        time.Duration
	threshold       int

	handle    Handle
	runID     string
	startedAt time.Time
	ledger    *CrashLedger
	warnings  WarningTracker
	announced bool
	starts    int
	crashes   int
}

// New validates opts and builds a Loop.
func New(opts Options) (*Loop, error) {
	if opts.Spawner == nil {
		return nil, errors.New("supervisor: spawner is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = PollInterval
	}
	if opts.PollInterval < 0 || opts.PollInterval >= time.Minute {
		return nil, fmt.Errorf("%w: got %s", ErrPollInterval, opts.PollInterval)
	}
	if opts.CooldownInterval <= 0 {
		opts.CooldownInterval = CooldownInterval
	}
	if opts.CrashThreshold <= 0 {
		opts.CrashThreshold = CrashThreshold
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 2 * time.Minute
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = 10 * time.Second
	}
	if opts.StopCommand == "" {
		opts.StopCommand = "stop"
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}

	return &Loop{
		window:          opts.Window,
		spawner:         opts.Spawner,
		notifier:        opts.Notifier,
		clock:           opts.Clock,
		log:             opts.Logger.With("component", "supervisor"),
		metrics:         opts.Metrics,
		observers:       opts.Observers,
		stopCommand:     opts.StopCommand,
		announceCommand: opts.AnnounceCommand,
		stopTimeout:     opts.StopTimeout,
		killGrace:       opts.KillGrace,
		poll:            opts.PollInterval,
		cooldown:        opts.CooldownInterval,
		threshold:       opts.CrashThreshold,
		ledger:          NewCrashLedger(opts.CrashHorizon),
	}, nil
}

// Serve runs the loop until ctx is cancelled. It implements suture.Service.
func (l *Loop) Serve(ctx context.Context) error {
	return l.Run(ctx)
}

func (l *Loop) String() string { return "supervisor-loop" }

// Run ticks until ctx is cancelled, then stops a live server before
// returning ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	if !l.announced {
		l.announced = true
		l.log.Info("supervisor started", "window", l.window.String(), "poll", l.poll)
		l.notify(ctx, fmt.Sprintf("curfew started: server window is %s", l.window))
	}

	for {
		if err := ctx.Err(); err != nil {
			l.Shutdown(ctx)
			return err
		}

		step := l.Tick(ctx)

		select {
		case <-ctx.Done():
			l.Shutdown(ctx)
			return ctx.Err()
		case <-l.clock.After(step.Next):
		}
	}
}

// Tick runs exactly one evaluation of the state machine.
func (l *Loop) Tick(ctx context.Context) Step {
	now := l.clock.Now()

	alive := l.checkAlive(ctx, now)
	open := l.window.Contains(now)

	var step Step
	switch {
	case !alive && open:
		step = l.startServer(ctx, now)
	case !alive:
		l.handle = nil
		step = Step{Action: ActionNone}
	case !open:
		l.log.Info("window closed, stopping server", "pid", l.handle.PID(), "run", l.runID)
		l.notify(ctx, "Stopping server (schedule)...")
		l.stopServer(ctx)
		step = Step{Action: ActionStop}
	default:
		step = l.maybeWarn(now)
	}

	if step.Next == 0 {
		step.Next = l.poll
	}
	l.publish(now, open, step.Action)
	return step
}

// checkAlive polls the current handle and clears it once the process is gone.
func (l *Loop) checkAlive(ctx context.Context, now time.Time) bool {
	if l.handle == nil {
		return false
	}

	exited, err := l.handle.Exited()
	if err != nil {
		l.log.Warn("liveness check failed, treating server as exited", "error", err)
		exited = true
	}
	if !exited {
		return true
	}

	code := -1
	if ec, ok := l.handle.(exitCoder); ok {
		code = ec.ExitCode()
	}
	l.crashes++
	l.metrics.Crash()
	l.log.Warn("server exited unexpectedly",
		"run", l.runID,
		"exit_code", code,
		"uptime", now.Sub(l.startedAt).Round(time.Second),
	)
	l.notify(ctx, fmt.Sprintf("Server exited unexpectedly (exit code %d)", code))

	l.handle = nil
	return false
}

func (l *Loop) startServer(ctx context.Context, now time.Time) Step {
	l.ledger.Prune(now)
	if l.ledger.Count() >= l.threshold {
		resume, _ := l.ledger.ResumesAt(l.threshold)
		oldest, _ := l.ledger.Oldest()
		l.log.Warn("crash loop detected, restarts paused",
			"recent_starts", l.ledger.Count(),
			"since", oldest.Format(time.TimeOnly),
			"horizon", l.ledger.horizon,
			"resume_after", resume.Format(time.TimeOnly),
		)
		l.notify(ctx, fmt.Sprintf(
			"Crash loop: server was started %d times in %s. Restarts paused until %s.",
			l.ledger.Count(), l.ledger.horizon, resume.Format("15:04:05")))
		l.metrics.Cooldown()
		return Step{Action: ActionCooldown, Next: l.cooldown}
	}

	l.log.Info("starting server", "recent_starts", l.ledger.Count())
	l.notify(ctx, "Starting server...")

	h, err := l.spawner.Spawn()
	l.ledger.Record(now)
	l.metrics.SpawnAttempt(err == nil)
	if err != nil {
		l.log.Error("failed to start server", "error", err)
		return Step{Action: ActionSpawnFailed}
	}

	l.handle = h
	l.runID = uuid.NewString()
	l.startedAt = now
	l.starts++
	l.warnings.Reset()
	l.log.Info("server started", "pid", h.PID(), "run", l.runID)
	return Step{Action: ActionSpawn}
}

func (l *Loop) maybeWarn(now time.Time) Step {
	left, ok := l.window.MinutesLeft(now)
	if !ok {
		return Step{Action: ActionNone}
	}
	mark, fire := l.warnings.Check(left)
	if !fire {
		return Step{Action: ActionNone}
	}

	msg := Announcement(l.announceCommand, mark)
	if err := l.handle.SendLine(msg); err != nil {
		l.log.Warn("failed to send countdown", "minutes", mark, "error", err)
	}
	l.metrics.Warning(mark)
	l.log.Info("countdown sent", "minutes", mark, "run", l.runID)
	return Step{Action: ActionWarn}
}

// stopServer sends the stop command and waits for the process to exit.
// The wait is bounded: after StopTimeout the process group gets SIGTERM,
// and after a further KillGrace, SIGKILL. The sequence is not interrupted
// by ctx cancellation.
func (l *Loop) stopServer(ctx context.Context) StopMode {
	h := l.handle
	ctx = context.WithoutCancel(ctx)
	defer func() { l.handle = nil }()

	if err := h.SendLine(l.stopCommand); err != nil {
		l.log.Warn("failed to send stop command", "error", err)
	}
	mode := StopGraceful
	if !l.waitExit(ctx, h, l.stopTimeout) {
		l.log.Warn("server ignored stop command, terminating", "timeout", l.stopTimeout)
		mode = StopTerminated
		if err := h.Terminate(); err != nil {
			l.log.Warn("terminate failed", "error", err)
		}
		if !l.waitExit(ctx, h, l.killGrace) {
			l.log.Warn("server ignored SIGTERM, killing", "grace", l.killGrace)
			mode = StopKilled
			if err := h.Kill(); err != nil {
				l.log.Warn("kill failed", "error", err)
			}
			if !l.waitExit(ctx, h, l.killGrace) {
				l.log.Error("server did not exit after SIGKILL, abandoning handle", "pid", h.PID())
				mode = StopAbandoned
			}
		}
	}

	l.metrics.Stop(mode)
	l.log.Info("server stopped", "mode", string(mode), "run", l.runID)
	if mode != StopGraceful {
		l.notify(ctx, fmt.Sprintf("Server did not stop within %s and was %s.", l.stopTimeout, mode))
	}
	return mode
}

func (l *Loop) waitExit(ctx context.Context, h Handle, d time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return h.Wait(ctx) == nil
}

// Shutdown stops a live server when the supervisor itself is exiting.
func (l *Loop) Shutdown(ctx context.Context) {
	if l.handle == nil {
		return
	}
	if exited, err := l.handle.Exited(); err == nil && exited {
		l.handle = nil
		return
	}
	l.log.Info("supervisor shutting down, stopping server", "pid", l.handle.PID())
	l.notify(ctx, "curfew shutting down: stopping server")
	l.stopServer(ctx)
	l.publish(l.clock.Now(), l.window.Contains(l.clock.Now()), ActionStop)
}

// notify is the one place status messages leave the loop. Delivery errors
// are logged and dropped: the loop never depends on a message arriving.
func (l *Loop) notify(ctx context.Context, text string) {
	err := l.notifier.Notify(context.WithoutCancel(ctx), text)
	l.metrics.Notification(err)
	if err != nil {
		l.log.Debug("notification not delivered", "error", err, "skipped", notify.IsSkipped(err))
	}
}

func (l *Loop) publish(now time.Time, open bool, action Action) {
	s := Status{
		Time:         now,
		Window:       l.window.String(),
		WindowOpen:   open,
		Phase:        PhaseStopped,
		LastAction:   action,
		MinutesLeft:  -1,
		RecentStarts: l.ledger.Count(),
		Starts:       l.starts,
		Crashes:      l.crashes,
	}
	if next, opens, ok := l.window.NextTransition(now); ok {
		s.NextTransition = next
		s.NextOpens = opens
	}
	if resume, ok := l.ledger.ResumesAt(l.threshold); ok {
		s.RestartsAfter = resume
	}
	if action == ActionCooldown {
		s.Phase = PhaseCooldown
	}
	if l.handle != nil {
		s.Phase = PhaseRunning
		s.RunID = l.runID
		s.PID = l.handle.PID()
		s.StartedAt = l.startedAt
		s.WarningsSent = l.warnings.Fired()
		if left, ok := l.window.MinutesLeft(now); ok {
			s.MinutesLeft = left
		}
	}

	l.metrics.Observe(s)
	for _, observe := range l.observers {
		observe(s)
	}
}
