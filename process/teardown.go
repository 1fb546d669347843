package process

import (
	"sync"
	"time"

	"github.com/dbtoolbox/mcp-contract-tests/framework"
)

const (
	defaultGracePeriod = 3 * time.Second
	defaultKillWait    = time.Second
)

// Guard holds scoped ownership of a launched Target. Release is safe to call
// from a defer on every exit path, runs at most once, and never returns an
// error: by the time teardown happens the scenario's verdict is already
// determined, so termination problems are only logged.
type Guard struct {
	target   *Target
	logger   framework.Logger
	grace    time.Duration
	killWait time.Duration
	once     sync.Once
}

// NewGuard takes ownership of target. logger may be nil.
func NewGuard(target *Target, logger framework.Logger) *Guard {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Guard{
		target:   target,
		logger:   logger,
		grace:    defaultGracePeriod,
		killWait: defaultKillWait,
	}
}

// Release terminates and reaps the target: graceful signal, bounded grace
// wait, force kill if still alive, then a final wait so the exit status is
// always observed and no zombie remains.
func (g *Guard) Release() {
	g.once.Do(g.release)
}

func (g *Guard) release() {
	t := g.target
	if status, exited := t.ExitStatus(); exited {
		g.logger.Printf("target process (pid %d) already exited with code %d", t.Pid(), status.Code)
		return
	}

	if err := t.terminate(); err != nil {
		g.logger.Printf("sending SIGTERM to pid %d: %s", t.Pid(), err)
	}
	if status, ok := t.WaitExit(g.grace); ok {
		g.logger.Printf("target process (pid %d) exited after SIGTERM with code %d", t.Pid(), status.Code)
		return
	}

	g.logger.Printf("target process (pid %d) did not exit within %s, killing", t.Pid(), g.grace)
	if err := t.kill(); err != nil {
		g.logger.Printf("killing pid %d: %s", t.Pid(), err)
	}
	if _, ok := t.WaitExit(g.killWait); !ok {
		g.logger.Printf("target process (pid %d) was not reaped after kill", t.Pid())
	}
}
