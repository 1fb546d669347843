package mcptests

import (
	"github.com/dbtoolbox/mcp-contract-tests/scenario"
	"github.com/dbtoolbox/mcp-contract-tests/targets"
)

// DoHandshakeTests runs the initialize handshake once per configured
// credential-delivery variation. Every variation must produce a successful
// initialize response within the handshake budget.
func DoHandshakeTests(t *T) {
	t.RequireCredentials()

	scenarios := t.target.Handshakes
	if len(scenarios) == 0 {
		scenarios = []targets.HandshakeScenario{{Name: "all configured credentials"}}
	}

	for _, hs := range scenarios {
		hs := hs
		t.Run(hs.Name, func(t *T) {
			plan := t.PlanFor(hs)
			v := t.RunScenario(plan,
				scenario.Handshake(t.target.Timeouts.Handshake()),
			)
			t.MustPass(v)
		})
	}
}
