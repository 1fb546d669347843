package mcptests

import (
	"github.com/dbtoolbox/mcp-contract-tests/scenario"
)

// DoInvocationTests runs each configured tools/call probe after a handshake
// and discovery. A probe whose tool was not advertised is skipped by the
// scenario runner rather than failed, so an optional tool missing from one
// build of a target does not break the suite.
func DoInvocationTests(t *T) {
	t.RequireCredentials()

	timeouts := t.target.Timeouts

	for _, inv := range t.target.Invocations {
		inv := inv
		t.Run(inv.Tool, func(t *T) {
			v := t.RunScenario(t.Plan(),
				scenario.Handshake(timeouts.Handshake()),
				scenario.Discover(timeouts.Step()),
				scenario.Invoke(inv.Tool, inv.ArgumentsValue(), timeouts.Step()),
			)
			t.MustPass(v)
			last := v.Steps[len(v.Steps)-1]
			if last.Step.Kind == scenario.StepInvoke && last.Outcome == scenario.Skip {
				t.context.SkipWithReason(last.Reason)
			}
		})
	}
}
