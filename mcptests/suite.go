package mcptests

import (
	"github.com/dbtoolbox/mcp-contract-tests/framework"
	"github.com/dbtoolbox/mcp-contract-tests/targets"
)

// RunTestSuite runs the full conformance suite against one configured target,
// resolving its credentials from the loaded environment values first.
func RunTestSuite(
	target *targets.TargetConfig,
	env targets.EnvValues,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	creds, missing := target.ResolveCredentials(env)

	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, target, creds, missing)

		t.Run(target.Name, func(t *T) {
			t.Run("handshake", DoHandshakeTests)
			t.Run("discovery", DoDiscoveryTests)
			t.Run("invocation", DoInvocationTests)
			t.Run("validation", DoValidationTests)
		})
	})
}
