package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/frontendtony/curfew/internal/config"
	"github.com/frontendtony/curfew/internal/logging"
)

// ErrExited is returned when writing to a process that has already exited.
var ErrExited = errors.New("process has exited")

var consoleSize = &pty.Winsize{Rows: 50, Cols: 160}

const (
	outputDrainTimeout = 2 * time.Second
	maxLineLength      = 16 * 1024
)

// Launcher starts the configured server command.
type Launcher struct {
	Server  config.Server
	Console *logging.RingBuffer

	// DisablePTY forces plain pipes, e.g. when stdout is not a terminal
	// the server cares about.
	DisablePTY bool
}

// Spawn starts a new server process. The returned process is already
// running; its output is copied into the launcher's console buffer.
func (l *Launcher) Spawn() (*ManagedProcess, error) {
	console := l.Console
	if console == nil {
		console = logging.NewRingBuffer(logging.DefaultBufferSize)
	}
	p := &ManagedProcess{console: console}
	if err := p.start(l.Server, !l.DisablePTY); err != nil {
		return nil, err
	}
	return p, nil
}

// ManagedProcess is one run of the server: an exec.Cmd in its own process
// group whose stdin is the server console.
type ManagedProcess struct {
	console *logging.RingBuffer

	mu    sync.Mutex
	state ProcessState
	cmd   *exec.Cmd
	stdin io.WriteCloser
	ptmx  *os.File // PTY master, nil when using pipes
	done  chan struct{}

	outputDone chan struct{}
}

func newCmd(srv config.Server) *exec.Cmd {
	cmd := exec.Command("sh", "-c", srv.Command)
	if srv.WorkingDir != "" {
		cmd.Dir = srv.WorkingDir
	}
	cmd.Env = buildEnv(srv.Env)
	return cmd
}

// start launches the command on a PTY, falling back to pipes if PTY
// allocation fails. pty.Start puts the child in a new session, which
// also makes it a process group leader.
func (p *ManagedProcess) start(srv config.Server, usePTY bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var reader io.Reader
	var pipeWriter *io.PipeWriter

	cmd := newCmd(srv)
	var ptmx *os.File
	var err error
	if usePTY {
		ptmx, err = pty.StartWithSize(cmd, consoleSize)
	}

	if usePTY && err == nil {
		p.ptmx = ptmx
		p.stdin = ptmx
		reader = ptmx
	} else {
		cmd = newCmd(srv)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("opening stdin for %q: %w", srv.Command, err)
		}
		var pr *io.PipeReader
		pr, pipeWriter = io.Pipe()
		cmd.Stdout = pipeWriter
		cmd.Stderr = pipeWriter
		reader = pr

		if err := cmd.Start(); err != nil {
			pipeWriter.Close()
			pr.Close()
			return fmt.Errorf("starting %q: %w", srv.Command, err)
		}
		p.stdin = stdin
	}

	p.cmd = cmd
	p.done = make(chan struct{})
	p.outputDone = make(chan struct{})
	p.state = ProcessState{
		Status:    StatusRunning,
		PID:       cmd.Process.Pid,
		StartedAt: time.Now(),
		PTY:       p.ptmx != nil,
	}

	go p.readOutput(reader)
	go p.waitForExit(pipeWriter)

	return nil
}

// PID returns the process ID of the shell running the server command.
func (p *ManagedProcess) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.PID
}

// SendLine writes one line to the server console.
func (p *ManagedProcess) SendLine(text string) error {
	select {
	case <-p.done:
		return ErrExited
	default:
	}
	p.mu.Lock()
	stdin := p.stdin
	p.mu.Unlock()

	if _, err := io.WriteString(stdin, text+"\n"); err != nil {
		return fmt.Errorf("writing to console: %w", err)
	}
	return nil
}

// Exited reports whether the process has exited, without blocking.
func (p *ManagedProcess) Exited() (bool, error) {
	select {
	case <-p.done:
		return true, nil
	default:
		return false, nil
	}
}

// Wait blocks until the process exits or ctx is done.
func (p *ManagedProcess) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel that closes when the process exits.
func (p *ManagedProcess) Done() <-chan struct{} {
	return p.done
}

// Terminate sends SIGTERM to the process group.
func (p *ManagedProcess) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

// Kill sends SIGKILL to the process group.
func (p *ManagedProcess) Kill() error {
	return p.signal(syscall.SIGKILL)
}

func (p *ManagedProcess) signal(sig syscall.Signal) error {
	p.mu.Lock()
	pid := p.state.PID
	if p.state.Status == StatusRunning {
		p.state.Status = StatusStopping
	}
	p.mu.Unlock()

	if pid == 0 {
		return ErrExited
	}
	if err := syscall.Kill(-pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("sending %s to process group %d: %w", sig, pid, err)
	}
	return nil
}

// State returns a thread-safe snapshot of the current process state.
func (p *ManagedProcess) State() ProcessState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ExitCode returns the exit code of a finished process, 0 while running.
func (p *ManagedProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.ExitCode
}

// Console returns the buffer holding the server's recent output.
func (p *ManagedProcess) Console() *logging.RingBuffer {
	return p.console
}

// readOutput copies the server's output into the console line by line
// until r is closed. Lines longer than maxLineLength are split so the
// pipe or PTY is always drained; a stalled reader would block the server
// on its next write.
func (p *ManagedProcess) readOutput(r io.Reader) {
	defer close(p.outputDone)
	br := bufio.NewReaderSize(r, maxLineLength)
	for {
		chunk, err := br.ReadSlice('\n')
		if len(chunk) > 0 {
			line := make([]byte, 0, len(chunk)+1)
			line = append(line, bytes.TrimRight(chunk, "\r\n")...)
			p.console.Write(append(line, '\n'))
		}
		if err != nil && !errors.Is(err, bufio.ErrBufferFull) {
			return
		}
	}
}

// waitForExit waits for the process to exit and records how it ended.
// If pw is non-nil (pipe mode), it closes the pipe writer after cmd.Wait().
func (p *ManagedProcess) waitForExit(pw *io.PipeWriter) {
	err := p.cmd.Wait()

	if p.ptmx != nil {
		// The master keeps returning buffered output until the last holder
		// of the slave side exits; orphaned grandchildren may hold it open.
		select {
		case <-p.outputDone:
		case <-time.After(outputDrainTimeout):
		}
		p.ptmx.Close()
	}
	if pw != nil {
		pw.Close()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.StoppedAt = time.Now()
	p.state.PID = 0

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		p.state.ExitCode = 0
		p.state.Status = StatusStopped
	case p.state.Status == StatusStopping:
		if errors.As(err, &exitErr) {
			p.state.ExitCode = exitErr.ExitCode()
		}
		p.state.Status = StatusStopped
	default:
		if errors.As(err, &exitErr) {
			p.state.ExitCode = exitErr.ExitCode()
		}
		p.state.Status = StatusFailed
		p.state.LastError = err.Error()
	}

	close(p.done)
}

func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
