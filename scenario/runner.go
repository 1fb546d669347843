package scenario

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/dbtoolbox/mcp-contract-tests/framework"
	"github.com/dbtoolbox/mcp-contract-tests/protocol"
)

// diagnosticTailLength bounds how much of the diagnostic channel a verdict
// carries, so failure reports stay readable.
const diagnosticTailLength = 20

// Session is the protocol surface the runner drives. *protocol.Session
// implements it.
type Session interface {
	Call(method string, params ldvalue.Value, deadline time.Time) protocol.CallResult
	Diagnostics() *protocol.DiagnosticBuffer
	CollectDiagnostics(maxWait time.Duration)
}

// Runner executes one ordered list of steps against one session. It does not
// own the target process; teardown belongs to the process guard regardless
// of how the run ends.
type Runner struct {
	session Session
	proc    protocol.ProcessInfo
	logger  framework.Logger
}

func NewRunner(session Session, proc protocol.ProcessInfo, logger framework.Logger) *Runner {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Runner{session: session, proc: proc, logger: logger}
}

// Run executes the steps strictly in order. The first failure aborts the
// remaining steps, which are recorded as skipped. Tool invocations whose
// tool was not advertised are skipped without aborting.
func (r *Runner) Run(steps []Step) Verdict {
	var results []StepResult
	var discovered []string
	discoveredSet := map[string]bool{}
	sawDiscover := false
	aborted := ""

	for _, step := range steps {
		if aborted != "" {
			results = append(results, StepResult{Step: step, Outcome: Skip, Reason: aborted})
			continue
		}
		if step.Kind == StepInvoke && sawDiscover && !discoveredSet[step.Tool] {
			reason := fmt.Sprintf("tool %q was not advertised", step.Tool)
			r.logger.Printf("skipping step %q: %s", step.Name, reason)
			results = append(results, StepResult{Step: step, Outcome: Skip, Reason: reason})
			continue
		}

		res := r.runStep(step, &discovered, discoveredSet)
		if res.Outcome == Pass && step.Kind == StepDiscover {
			sawDiscover = true
		}
		results = append(results, res)
		if res.Outcome == Fail {
			aborted = "skipped due to prior failure"
		}
	}

	return r.verdict(results, discovered)
}

func (r *Runner) runStep(step Step, discovered *[]string, discoveredSet map[string]bool) StepResult {
	r.logger.Printf("running step %q", step.Name)
	switch step.Kind {
	case StepHandshake:
		return r.handshake(step)
	case StepDiscover:
		return r.discover(step, discovered, discoveredSet)
	case StepInvoke:
		return r.invoke(step)
	case StepExpectFailure:
		return r.expectFailure(step)
	default:
		return StepResult{Step: step, Outcome: Fail, Reason: "unknown step kind"}
	}
}

func (r *Runner) handshake(step Step) StepResult {
	params := ldvalue.ObjectBuild().
		Set("protocolVersion", ldvalue.String("1.0.0")).
		Set("capabilities", ldvalue.ObjectBuild().Build()).
		Set("clientInfo", ldvalue.ObjectBuild().
			Set("name", ldvalue.String("mcp-contract-tests")).
			Set("version", ldvalue.String("1.0.0")).
			Build()).
		Build()
	res := r.session.Call("initialize", params, time.Now().Add(step.Timeout))
	if sr, ok := r.checkSuccess(step, res); !ok {
		return sr
	}
	server := res.Response.Result.GetByKey("serverInfo").GetByKey("name").StringValue()
	if server != "" {
		r.logger.Printf("initialize response from server %q", server)
	}
	return StepResult{Step: step, Outcome: Pass}
}

func (r *Runner) discover(step Step, discovered *[]string, discoveredSet map[string]bool) StepResult {
	res := r.session.Call("tools/list", ldvalue.ObjectBuild().Build(), time.Now().Add(step.Timeout))
	if sr, ok := r.checkSuccess(step, res); !ok {
		return sr
	}
	tools := res.Response.Result.GetByKey("tools")
	for i := 0; i < tools.Count(); i++ {
		name := tools.GetByIndex(i).GetByKey("name").StringValue()
		if name == "" {
			continue
		}
		*discovered = append(*discovered, name)
		discoveredSet[name] = true
	}
	r.logger.Printf("advertised tools: %v", *discovered)
	var missing []string
	for _, want := range step.RequiredTools {
		if !discoveredSet[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return StepResult{Step: step, Outcome: Fail,
			Reason: fmt.Sprintf("required tools not advertised: %v", missing)}
	}
	return StepResult{Step: step, Outcome: Pass}
}

func (r *Runner) invoke(step Step) StepResult {
	args := step.Arguments
	if args.IsNull() {
		args = ldvalue.ObjectBuild().Build()
	}
	params := ldvalue.ObjectBuild().
		Set("name", ldvalue.String(step.Tool)).
		Set("arguments", args).
		Build()
	res := r.session.Call("tools/call", params, time.Now().Add(step.Timeout))
	if sr, ok := r.checkSuccess(step, res); !ok {
		return sr
	}
	if res.Response.Result.GetByKey("isError").BoolValue() {
		return StepResult{Step: step, Outcome: Fail,
			Reason: fmt.Sprintf("tool %q reported an error result: %s", step.Tool, res.Response.Result.JSONString())}
	}
	return StepResult{Step: step, Outcome: Pass}
}

func (r *Runner) expectFailure(step Step) StepResult {
	exit, exited := r.proc.WaitExit(step.Timeout)
	r.session.CollectDiagnostics(time.Second)
	if !exited {
		return StepResult{Step: step, Outcome: Fail,
			Reason: fmt.Sprintf("process was still running after %s; expected it to refuse to start", step.Timeout)}
	}
	if exit.Code == 0 {
		return StepResult{Step: step, Outcome: Fail,
			Reason: "process exited cleanly; expected a non-zero exit code"}
	}
	if step.ExpectError != "" && !r.session.Diagnostics().ContainsFold(step.ExpectError) {
		return StepResult{Step: step, Outcome: Fail,
			Reason: fmt.Sprintf("diagnostic output did not mention %q (exit code %d)", step.ExpectError, exit.Code)}
	}
	r.logger.Printf("process refused to start as expected (exit code %d)", exit.Code)
	return StepResult{Step: step, Outcome: Pass}
}

// checkSuccess maps a call result onto a step result. ok is false when the
// step did not produce a usable success response.
func (r *Runner) checkSuccess(step Step, res protocol.CallResult) (StepResult, bool) {
	if res.Kind == protocol.OutcomeResponse && res.Response.Success() {
		return StepResult{}, true
	}
	return StepResult{Step: step, Outcome: Fail, Reason: res.Describe()}, false
}

func (r *Runner) verdict(results []StepResult, discovered []string) Verdict {
	outcome := Skip
	reason := ""
	for _, sr := range results {
		switch sr.Outcome {
		case Fail:
			outcome = Fail
			if reason == "" {
				reason = fmt.Sprintf("step %q failed: %s", sr.Step.Name, sr.Reason)
			}
		case Pass:
			if outcome != Fail {
				outcome = Pass
			}
		}
	}

	sort.Strings(discovered)
	var tail []string
	for _, l := range r.session.Diagnostics().Tail(diagnosticTailLength) {
		tail = append(tail, l.Text)
	}
	return Verdict{
		Outcome:         outcome,
		Reason:          reason,
		Steps:           results,
		DiscoveredTools: discovered,
		Diagnostics:     tail,
	}
}
