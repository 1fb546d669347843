package mcptests

import (
	"fmt"
	"strings"

	"github.com/dbtoolbox/mcp-contract-tests/framework"
	"github.com/dbtoolbox/mcp-contract-tests/process"
	"github.com/dbtoolbox/mcp-contract-tests/protocol"
	"github.com/dbtoolbox/mcp-contract-tests/scenario"
	"github.com/dbtoolbox/mcp-contract-tests/targets"
)

// T represents a test or subtest in the conformance suite.
//
// It implements the same basic functionality as Go's testing.T, but in an
// environment outside the Go test runner, with extra features such as debug
// log capture that is only replayed on failure. Those features come from the
// lower-level framework package.
//
// It also provides the domain-specific operations: building a launch plan
// from the target's resolved credentials, running a scenario (launch,
// guarded teardown, scripted steps) and asserting on its verdict. To make
// assertions you can use the assert and require packages, passing the *T as
// if it were a *testing.T.
type T struct {
	context *framework.Context
	target  *targets.TargetConfig
	creds   targets.Credentials
	missing []string
}

func newTestScope(context *framework.Context, target *targets.TargetConfig,
	creds targets.Credentials, missing []string) *T {
	return &T{context: context, target: target, creds: creds, missing: missing}
}

// Errorf is called by assertions to log a test failure without stopping the
// test.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when the test should fail and stop. The
// require package calls this.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest, equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.target, t.creds, t.missing))
	})
}

// Debug logs output that is surfaced by the test logger at the end of the
// test, normally only on failure.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// RequireCredentials skips the test if the target's required credential keys
// were not all present in the .env file. Missing credentials are a
// configuration matter, never a conformance failure.
func (t *T) RequireCredentials() {
	if len(t.missing) > 0 {
		t.context.SkipWithReason(fmt.Sprintf("missing credentials in env file: %s",
			strings.Join(t.missing, ", ")))
	}
}

// Plan starts a launch plan carrying every resolved credential.
func (t *T) Plan() *targets.LaunchPlan {
	return t.target.NewPlan(t.creds)
}

// PlanFor builds the launch plan for one configured handshake scenario,
// skipping the test when a credential the scenario depends on is absent or
// (for PEM keys) visibly broken.
func (t *T) PlanFor(hs targets.HandshakeScenario) *targets.LaunchPlan {
	plan := t.Plan()
	if len(hs.Only) > 0 {
		for _, key := range hs.Only {
			spec := t.target.Keys[key]
			if spec == nil {
				continue
			}
			value := t.creds[key]
			if value == "" && (spec.Secret || spec.Required) {
				t.context.SkipWithReason(fmt.Sprintf("credential %q not in env file", key))
			}
			if value != "" && spec.PEM && !targets.LooksLikePEM(value) {
				t.context.SkipWithReason(fmt.Sprintf("credential %q does not look like a complete PEM block", key))
			}
		}
		plan.Only(hs.Only...)
	}
	for key, channel := range hs.Force {
		plan.ForceChannel(key, channel)
	}
	return plan
}

// RunScenario launches the target per the plan, guards its teardown, and
// executes the steps, returning the verdict. The launched process is always
// terminated and reaped before this returns, whatever the outcome.
func (t *T) RunScenario(plan *targets.LaunchPlan, steps ...scenario.Step) scenario.Verdict {
	cmd, display := plan.Command()
	t.Debug("launching: %s", display)
	t.Debug("%s", plan.Describe())

	target, err := process.Launch(cmd)
	if err != nil {
		t.Errorf("%s", err)
		t.FailNow()
	}
	guard := process.NewGuard(target, t.context.DebugLogger())
	defer guard.Release()

	mux := protocol.NewMultiplexer(target.Stdout(), target.Stderr(), t.context.DebugLogger())
	session := protocol.NewSession(target.Stdin(), mux, target, t.context.DebugLogger())
	runner := scenario.NewRunner(session, target, t.context.DebugLogger())

	verdict := runner.Run(steps)
	for _, sr := range verdict.Steps {
		if sr.Reason != "" {
			t.Debug("step %q: %s (%s)", sr.Step.Name, sr.Outcome, sr.Reason)
		} else {
			t.Debug("step %q: %s", sr.Step.Name, sr.Outcome)
		}
	}
	return verdict
}

// MustPass fails and stops the test if the verdict is a failure, surfacing a
// bounded tail of the diagnostic channel in the failure message.
func (t *T) MustPass(v scenario.Verdict) {
	if v.Outcome != scenario.Fail {
		return
	}
	msg := v.Reason
	if len(v.Diagnostics) > 0 {
		msg += "\nlast diagnostic output:\n  " + strings.Join(v.Diagnostics, "\n  ")
	}
	t.Errorf("%s", msg)
	t.FailNow()
}
