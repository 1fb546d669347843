package mcptests

import (
	"github.com/dbtoolbox/mcp-contract-tests/scenario"

	"github.com/stretchr/testify/assert"
)

// DoDiscoveryTests verifies that a freshly initialized target advertises
// every tool the catalog marks as required, and that the advertised list is
// stable across launches.
func DoDiscoveryTests(t *T) {
	t.RequireCredentials()

	timeouts := t.target.Timeouts

	t.Run("advertises required tools", func(t *T) {
		v := t.RunScenario(t.Plan(),
			scenario.Handshake(timeouts.Handshake()),
			scenario.Discover(timeouts.Step(), t.target.RequiredTools...),
		)
		t.MustPass(v)
		t.Debug("advertised tools: %v", v.DiscoveredTools)
	})

	t.Run("tool list is stable across launches", func(t *T) {
		v1 := t.RunScenario(t.Plan(),
			scenario.Handshake(timeouts.Handshake()),
			scenario.Discover(timeouts.Step()),
		)
		t.MustPass(v1)

		v2 := t.RunScenario(t.Plan(),
			scenario.Handshake(timeouts.Handshake()),
			scenario.Discover(timeouts.Step()),
		)
		t.MustPass(v2)

		assert.Equal(t, v1.DiscoveredTools, v2.DiscoveredTools,
			"two launches advertised different tool lists")
	})
}
