// Package framework contains the low-level implementation of test harness
// infrastructure that is not specific to the MCP domain and could be reused
// for different kinds of conformance tests.
//
// The general model is:
//
// 1. There is a notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to
// accumulate pass/fail/skip results.
//
// 2. Debug output produced during a test is captured with timestamps and only
// replayed when the configured test logger decides to (normally on failure).
//
// 3. Regex filters select which tests in a run are executed.
//
// The domain-specific code that knows what is being tested (how to launch
// the target process, what requests to send it, what the responses must
// look like) lives in the scenario and mcptests packages, layered on top of
// this one.
package framework
