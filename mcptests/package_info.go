// Package mcptests contains the MCP stdio conformance tests themselves and
// their supporting API.
//
// Harness infrastructure that is not specific to the MCP domain (launching
// and tearing down the target process, multiplexing its output streams,
// accumulating pass/fail/skip results) lives in the lower-level process,
// protocol, scenario, and framework packages.
package mcptests
