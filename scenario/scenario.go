// Package scenario sequences a fixed list of protocol steps against one
// launched target process and produces a structured verdict. The first
// failing step aborts the remainder; a step whose precondition is not met
// (an invocation of a tool the target never advertised) is skipped, not
// failed.
package scenario

import (
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Outcome classifies a step or a whole scenario.
type Outcome int

const (
	Pass Outcome = iota
	Fail
	Skip
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// StepKind is the type of one scenario step.
type StepKind int

const (
	// StepHandshake sends the fixed initialize request.
	StepHandshake StepKind = iota
	// StepDiscover requests the advertised tool list and threads it into
	// later steps.
	StepDiscover
	// StepInvoke calls one advertised tool; skipped if the tool was not
	// advertised by a prior StepDiscover.
	StepInvoke
	// StepExpectFailure asserts that the process refuses to run: non-zero
	// exit within the grace period plus an expected diagnostic substring.
	StepExpectFailure
)

// Step is one entry in a scenario's ordered step list.
type Step struct {
	Kind          StepKind
	Name          string
	Tool          string        // StepInvoke: tool to call
	Arguments     ldvalue.Value // StepInvoke: tool arguments
	RequiredTools []string      // StepDiscover: tools whose absence is a failure
	ExpectError   string        // StepExpectFailure: diagnostic substring
	Timeout       time.Duration // per-step deadline budget
}

// Handshake builds the initialize step.
func Handshake(timeout time.Duration) Step {
	return Step{Kind: StepHandshake, Name: "initialize", Timeout: timeout}
}

// Discover builds the tools/list step. Any tools named in required must be
// advertised or the step fails.
func Discover(timeout time.Duration, required ...string) Step {
	return Step{Kind: StepDiscover, Name: "tools/list", RequiredTools: required, Timeout: timeout}
}

// Invoke builds a tools/call step for one tool.
func Invoke(tool string, arguments ldvalue.Value, timeout time.Duration) Step {
	return Step{Kind: StepInvoke, Name: "call " + tool, Tool: tool, Arguments: arguments, Timeout: timeout}
}

// ExpectFailure builds a step that waits for the process to refuse to run.
func ExpectFailure(errorCategory string, grace time.Duration) Step {
	return Step{Kind: StepExpectFailure, Name: "expect failure", ExpectError: errorCategory, Timeout: grace}
}

// StepResult records one executed (or skipped) step.
type StepResult struct {
	Step    Step
	Outcome Outcome
	Reason  string
}

// Verdict is the sole externally meaningful result of a scenario run.
// Immutable once produced.
type Verdict struct {
	Outcome         Outcome
	Reason          string
	Steps           []StepResult
	DiscoveredTools []string
	// Diagnostics is a bounded tail of the diagnostic channel, newest last.
	Diagnostics []string
}
