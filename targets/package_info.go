// Package targets holds the scenario-specific wiring around the harness
// core: the catalog of testable target images (YAML), credential loading
// from .env files, and construction of the container run command for a
// particular combination of credentials and delivery channels (CLI flag vs.
// environment variable).
//
// Nothing in this package talks to the target process; it only produces
// process.Command values for the launcher.
package targets
