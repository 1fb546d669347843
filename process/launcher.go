package process

import (
	"fmt"
	"os"
	"os/exec"
)

// Command is a fully resolved command line for a target process. Env is in
// the usual KEY=VALUE form and replaces the harness environment entirely if
// non-nil.
type Command struct {
	Path string
	Args []string
	Env  []string
}

// LaunchError means the target process could not be started at all (program
// not found, permission denied). It is fatal for the scenario and never
// retried.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("could not launch %s: %s", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Launch starts the target process with pipes bound to all three streams.
// On success the caller owns the returned Target and must arrange for it to
// be torn down (normally by constructing a Guard around it immediately).
func Launch(command Command) (*Target, error) {
	cmd := exec.Command(command.Path, command.Args...)
	if command.Env != nil {
		cmd.Env = command.Env
	}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return nil, &LaunchError{Command: command.Path, Err: err}
	}

	// The child holds its own copies of these ends now; closing ours is what
	// makes the readers see EOF when the child exits.
	stdinR.Close()
	stdoutW.Close()
	stderrW.Close()

	t := &Target{
		cmd:    cmd,
		stdin:  stdinW,
		stdout: stdoutR,
		stderr: stderrR,
		done:   make(chan struct{}),
	}
	go t.reap()
	return t, nil
}
