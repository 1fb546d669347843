// Package process launches the target process under test and owns its
// lifecycle: three pipe-backed streams (stdin for the protocol input, stdout
// for protocol output, stderr for diagnostics), observable liveness, and a
// teardown guard that guarantees the process is terminated and reaped on
// every exit path.
//
// The streams are created with explicit pipes rather than exec.Cmd's managed
// pipes so that reaping the process never closes a read end while buffered
// output is still waiting to be drained. That guarantee is what lets the
// protocol multiplexer deliver every flushed line before reporting that the
// stream closed.
package process
