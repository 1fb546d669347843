// Package protocol implements the line-delimited JSON-RPC exchange with a
// target process: a multiplexer that watches the protocol channel (stdout)
// and the diagnostic channel (stderr) simultaneously against a wall-clock
// deadline, and a session that writes one request at a time and collects the
// correlated response line.
//
// The session supports exactly one in-flight request at a time. Each request
// line is answered by exactly one response line in this transport, so
// request pipelining would need id-keyed correlation that this package does
// not attempt.
package protocol
