package mcptests

import (
	"github.com/dbtoolbox/mcp-contract-tests/scenario"
)

// DoValidationTests launches the target with deliberately broken credential
// sets and requires that it refuses to run: a non-zero exit within the grace
// period, with the expected category of complaint on the diagnostic channel.
// A target that hangs, exits cleanly, or complains about something else
// fails the check.
//
// These scenarios only withhold or fabricate credentials, so they run even
// when the env file is incomplete.
func DoValidationTests(t *T) {
	for _, vs := range t.target.Validations {
		vs := vs
		t.Run(vs.Name, func(t *T) {
			plan := t.Plan()
			if len(vs.Only) > 0 {
				plan.Only(vs.Only...)
			}
			for key, value := range vs.Fallback {
				plan.WithFallback(key, value)
			}
			v := t.RunScenario(plan,
				scenario.ExpectFailure(vs.ExpectError, t.target.Timeouts.FailureGrace()),
			)
			t.MustPass(v)
		})
	}
}
