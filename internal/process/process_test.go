//go:build !ci

package process

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/frontendtony/curfew/internal/config"
	"github.com/frontendtony/curfew/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func launch(t *testing.T, command string, disablePTY bool) (*ManagedProcess, *logging.RingBuffer) {
	t.Helper()
	buf := logging.NewRingBuffer(100)
	l := &Launcher{
		Server:     config.Server{Command: command},
		Console:    buf,
		DisablePTY: disablePTY,
	}
	p, err := l.Spawn()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Kill() })
	return p, buf
}

func waitExit(t *testing.T, p *ManagedProcess) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx), "process did not exit in time")
}

func containsLine(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func TestProcess_StartAndExit(t *testing.T) {
	for _, disablePTY := range []bool{false, true} {
		p, buf := launch(t, "echo hello", disablePTY)

		state := p.State()
		assert.NotZero(t, state.StartedAt)

		waitExit(t, p)

		exited, err := p.Exited()
		require.NoError(t, err)
		assert.True(t, exited)

		state = p.State()
		assert.Equal(t, StatusStopped, state.Status)
		assert.Equal(t, 0, state.ExitCode)
		assert.Zero(t, p.PID())

		time.Sleep(100 * time.Millisecond) // reader goroutine
		assert.True(t, containsLine(buf.All(), "hello"), "pty=%v lines=%v", !disablePTY, buf.All())
	}
}

func TestProcess_ExitedWhileRunning(t *testing.T) {
	p, _ := launch(t, "sleep 3600", false)

	exited, err := p.Exited()
	require.NoError(t, err)
	assert.False(t, exited)
	assert.NotZero(t, p.PID())
	assert.Equal(t, StatusRunning, p.State().Status)
}

func TestProcess_SendLineReachesStdin(t *testing.T) {
	for _, disablePTY := range []bool{false, true} {
		p, buf := launch(t, `read line; echo "got:$line"`, disablePTY)

		require.NoError(t, p.SendLine("stop"))
		waitExit(t, p)

		time.Sleep(100 * time.Millisecond)
		assert.True(t, containsLine(buf.All(), "got:stop"), "pty=%v lines=%v", !disablePTY, buf.All())
	}
}

func TestProcess_LongLineDoesNotStallOutput(t *testing.T) {
	cmd := `head -c 300000 /dev/zero | tr '\0' a; echo; head -c 300000 /dev/zero | tr '\0' '\n'; echo after-long-line`
	for _, disablePTY := range []bool{false, true} {
		p, buf := launch(t, cmd, disablePTY)
		waitExit(t, p)

		exited, err := p.Exited()
		require.NoError(t, err)
		assert.True(t, exited, "pty=%v", !disablePTY)
		require.Eventually(t, func() bool {
			return containsLine(buf.All(), "after-long-line")
		}, 3*time.Second, 20*time.Millisecond, "pty=%v", !disablePTY)
	}
}

func TestReadOutput_SplitsOverlongLines(t *testing.T) {
	buf := logging.NewRingBuffer(100)
	p := &ManagedProcess{console: buf, outputDone: make(chan struct{})}

	input := strings.Repeat("a", maxLineLength*2+10) + "\r\nnext\n"
	p.readOutput(strings.NewReader(input))

	lines := buf.All()
	require.Len(t, lines, 4)
	for _, l := range lines[:2] {
		assert.Equal(t, maxLineLength, strings.Count(l, "a"))
	}
	assert.Equal(t, 10, strings.Count(lines[2], "a"))
	assert.NotContains(t, lines[2], "\r")
	assert.True(t, strings.HasSuffix(lines[3], "next"))

	select {
	case <-p.outputDone:
	default:
		t.Fatal("outputDone not closed")
	}
}

func TestProcess_SendLineAfterExit(t *testing.T) {
	p, _ := launch(t, "true", true)
	waitExit(t, p)

	assert.ErrorIs(t, p.SendLine("say hi"), ErrExited)
}

func TestProcess_FailedCommand(t *testing.T) {
	p, _ := launch(t, "exit 42", false)
	waitExit(t, p)

	state := p.State()
	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, 42, state.ExitCode)
	assert.NotEmpty(t, state.LastError)
}

func TestProcess_TerminateIgnoredThenKill(t *testing.T) {
	p, _ := launch(t, `trap "" TERM; sleep 3600`, true)
	time.Sleep(100 * time.Millisecond) // let the shell install the trap

	require.NoError(t, p.Terminate())
	assert.Equal(t, StatusStopping, p.State().Status)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)

	require.NoError(t, p.Kill())
	waitExit(t, p)
	assert.Equal(t, StatusStopped, p.State().Status)
}

func TestProcess_SignalAfterExit(t *testing.T) {
	p, _ := launch(t, "true", true)
	waitExit(t, p)

	assert.ErrorIs(t, p.Terminate(), ErrExited)
}

func TestProcess_WorkingDirAndEnv(t *testing.T) {
	buf := logging.NewRingBuffer(100)
	l := &Launcher{
		Server: config.Server{
			Command:    `pwd; echo "$CURFEW_TEST_VAR"`,
			WorkingDir: "/tmp",
			Env:        map[string]string{"CURFEW_TEST_VAR": "hello_from_curfew"},
		},
		Console: buf,
	}
	p, err := l.Spawn()
	require.NoError(t, err)
	waitExit(t, p)

	time.Sleep(100 * time.Millisecond)
	lines := buf.All()
	assert.True(t, containsLine(lines, "/tmp"), "lines=%v", lines)
	assert.True(t, containsLine(lines, "hello_from_curfew"), "lines=%v", lines)
}

func TestLauncher_BadWorkingDir(t *testing.T) {
	l := &Launcher{Server: config.Server{Command: "true", WorkingDir: "/nonexistent/dir"}}
	_, err := l.Spawn()
	assert.Error(t, err)
}

func TestProcessState_Uptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	s := ProcessState{StartedAt: start}
	assert.Equal(t, time.Hour, s.Uptime(start.Add(time.Hour)))

	s.StoppedAt = start.Add(30 * time.Minute)
	assert.Equal(t, 30*time.Minute, s.Uptime(start.Add(time.Hour)))

	assert.Zero(t, ProcessState{}.Uptime(start))
}
