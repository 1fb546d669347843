package process

import (
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// State describes the observed lifecycle of a target process.
type State int

const (
	StateRunning State = iota
	StateExited
	StateKilled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// ExitStatus is the reaped status of a target process. Killed distinguishes
// a termination forced by the harness from the process's own exit; Code is
// -1 when the process died from a signal.
type ExitStatus struct {
	Code   int
	Killed bool
}

// Target is an owned handle on a launched process. The stdin writer belongs
// to the protocol session, the two readers belong to the stream multiplexer,
// and termination belongs exclusively to the teardown guard.
type Target struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	done chan struct{}

	mu     sync.Mutex
	exit   ExitStatus
	reaped bool
	killed bool
}

// Stdin returns the protocol input writer.
func (t *Target) Stdin() io.WriteCloser { return t.stdin }

// Stdout returns the protocol output reader.
func (t *Target) Stdout() io.ReadCloser { return t.stdout }

// Stderr returns the diagnostic output reader.
func (t *Target) Stderr() io.ReadCloser { return t.stderr }

// Pid returns the OS process id, for logging.
func (t *Target) Pid() int {
	if t.cmd.Process == nil {
		return 0
	}
	return t.cmd.Process.Pid
}

// State samples the current lifecycle state without blocking.
func (t *Target) State() State {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.exit.Killed {
			return StateKilled
		}
		return StateExited
	default:
		return StateRunning
	}
}

// WaitExit waits up to timeout for the process to be reaped. The second
// return value is false if the process was still running when the timeout
// elapsed.
func (t *Target) WaitExit(timeout time.Duration) (ExitStatus, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.exit, true
	case <-timer.C:
		return ExitStatus{}, false
	}
}

// ExitStatus returns the reaped status, or false if the process has not
// exited yet.
func (t *Target) ExitStatus() (ExitStatus, bool) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.exit, true
	default:
		return ExitStatus{}, false
	}
}

func (t *Target) terminate() error {
	t.mu.Lock()
	t.killed = true
	t.mu.Unlock()
	return t.cmd.Process.Signal(syscall.SIGTERM)
}

func (t *Target) kill() error {
	t.mu.Lock()
	t.killed = true
	t.mu.Unlock()
	return t.cmd.Process.Kill()
}

// reap runs on its own goroutine from the moment the process starts, so the
// exit status is observed as soon as the process dies regardless of what the
// harness is doing.
func (t *Target) reap() {
	err := t.cmd.Wait()
	code := 0
	if err != nil {
		code = -1
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		}
	} else {
		code = t.cmd.ProcessState.ExitCode()
	}
	t.mu.Lock()
	t.exit = ExitStatus{Code: code, Killed: t.killed}
	t.reaped = true
	t.mu.Unlock()
	close(t.done)
}
