package process

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineRecorder) Printf(message string, args ...interface{}) {
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprintf(message, args...))
	l.mu.Unlock()
}

func (l *lineRecorder) joined() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func TestGuardTerminatesRunningProcess(t *testing.T) {
	target := launchShell(t, "sleep 30")
	guard := NewGuard(target, nil)

	guard.Release()

	status, ok := target.ExitStatus()
	require.True(t, ok)
	assert.True(t, status.Killed)
	assert.Equal(t, StateKilled, target.State())
}

func TestGuardKillsProcessThatIgnoresTermination(t *testing.T) {
	target := launchShell(t, "trap '' TERM; sleep 30")
	guard := NewGuard(target, nil)
	guard.grace = 200 * time.Millisecond

	// Give the shell a moment to install the trap.
	time.Sleep(100 * time.Millisecond)
	guard.Release()

	status, ok := target.ExitStatus()
	require.True(t, ok)
	assert.True(t, status.Killed)
}

func TestGuardLogsWhenProcessAlreadyExited(t *testing.T) {
	target := launchShell(t, "exit 7")
	_, ok := target.WaitExit(5 * time.Second)
	require.True(t, ok)

	logger := &lineRecorder{}
	guard := NewGuard(target, logger)
	guard.Release()

	assert.Contains(t, logger.joined(), "already exited with code 7")
}

func TestGuardReleaseRunsOnlyOnce(t *testing.T) {
	target := launchShell(t, "exit 0")
	_, ok := target.WaitExit(5 * time.Second)
	require.True(t, ok)

	logger := &lineRecorder{}
	guard := NewGuard(target, logger)
	guard.Release()
	guard.Release()
	guard.Release()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	assert.Len(t, logger.lines, 1)
}
