package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/dbtoolbox/mcp-contract-tests/framework"
	"github.com/dbtoolbox/mcp-contract-tests/process"
)

const (
	progressReportEvery = 5 * time.Second
	exitStatusWait      = 2 * time.Second
	closingDrainWait    = 500 * time.Millisecond
)

// ProcessInfo is the view of the target process that the session needs:
// liveness sampling for progress reports, and the exit status once the
// protocol channel closes. *process.Target implements it.
type ProcessInfo interface {
	State() process.State
	WaitExit(timeout time.Duration) (process.ExitStatus, bool)
}

// DiagnosticBuffer accumulates diagnostic-channel lines for the life of a
// scenario, in observation order. It is only consulted for failure
// reporting.
type DiagnosticBuffer struct {
	mu    sync.Mutex
	lines []LineEvent
}

func (b *DiagnosticBuffer) Append(ev LineEvent) {
	b.mu.Lock()
	b.lines = append(b.lines, ev)
	b.mu.Unlock()
}

// Lines returns a copy of everything captured so far.
func (b *DiagnosticBuffer) Lines() []LineEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]LineEvent(nil), b.lines...)
}

// Tail returns at most the last n lines, for bounded failure reports.
func (b *DiagnosticBuffer) Tail(n int) []LineEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) <= n {
		return append([]LineEvent(nil), b.lines...)
	}
	return append([]LineEvent(nil), b.lines[len(b.lines)-n:]...)
}

func (b *DiagnosticBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// ContainsFold reports whether any captured line contains substr,
// case-insensitively.
func (b *DiagnosticBuffer) ContainsFold(substr string) bool {
	substr = strings.ToLower(substr)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.lines {
		if strings.Contains(strings.ToLower(l.Text), substr) {
			return true
		}
	}
	return false
}

// OutcomeKind classifies the result of one Call.
type OutcomeKind int

const (
	// OutcomeResponse means a protocol-channel line parsed as a response
	// envelope (which may still carry an error member).
	OutcomeResponse OutcomeKind = iota
	// OutcomeTimeout means the deadline passed with no response.
	OutcomeTimeout
	// OutcomeProcessExited means the protocol channel closed before a
	// response arrived; Exit carries the observed status.
	OutcomeProcessExited
	// OutcomeProtocolError means a protocol-channel line was JSON but not a
	// valid response envelope; RawLine holds the offending text. Non-JSON
	// lines are misrouted diagnostics, not protocol errors.
	OutcomeProtocolError
	// OutcomeWriteError means the request could not be written, normally
	// because the process already exited and closed its stdin.
	OutcomeWriteError
)

// CallResult is the outcome of one request/response exchange. Errors are
// outcomes here, not Go errors propagated to the caller; the scenario runner
// decides pass/fail semantics.
type CallResult struct {
	Kind     OutcomeKind
	Response *Response
	Exit     process.ExitStatus
	RawLine  string
	Err      error
}

// Describe renders the result for failure messages.
func (r CallResult) Describe() string {
	switch r.Kind {
	case OutcomeResponse:
		if r.Response.Err != nil {
			return fmt.Sprintf("response carried error (%s)", r.Response.Err)
		}
		return "response received"
	case OutcomeTimeout:
		return "timed out waiting for response"
	case OutcomeProcessExited:
		if r.Exit.Killed {
			return "process was killed by the harness before responding"
		}
		return fmt.Sprintf("process exited with code %d before responding", r.Exit.Code)
	case OutcomeProtocolError:
		return fmt.Sprintf("protocol line was not a response envelope: %q", r.RawLine)
	case OutcomeWriteError:
		return fmt.Sprintf("could not write request: %s", r.Err)
	default:
		return "unknown outcome"
	}
}

// Session serializes one JSON-RPC request at a time onto the target's stdin
// and collects the correlated response through the multiplexer. Diagnostic
// lines observed while waiting are appended to the session's
// DiagnosticBuffer before the response is returned, preserving order.
type Session struct {
	stdin       io.Writer
	mux         *Multiplexer
	proc        ProcessInfo
	diagnostics *DiagnosticBuffer
	logger      framework.Logger
	lastID      int
}

// NewSession wires a session to a launched target. logger may be nil.
func NewSession(stdin io.Writer, mux *Multiplexer, proc ProcessInfo, logger framework.Logger) *Session {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Session{
		stdin:       stdin,
		mux:         mux,
		proc:        proc,
		diagnostics: &DiagnosticBuffer{},
		logger:      logger,
	}
}

// Diagnostics returns the buffer of diagnostic lines captured so far.
func (s *Session) Diagnostics() *DiagnosticBuffer {
	return s.diagnostics
}

// Call sends one request and waits for its response until deadline. There is
// never more than one request outstanding.
func (s *Session) Call(method string, params ldvalue.Value, deadline time.Time) CallResult {
	s.lastID++
	id := s.lastID
	req := Request{JSONRPC: Version, Method: method, Params: params, ID: id}
	data, err := json.Marshal(req)
	if err != nil {
		return CallResult{Kind: OutcomeWriteError, Err: err}
	}
	if _, err := s.stdin.Write(append(data, '\n')); err != nil {
		return CallResult{Kind: OutcomeWriteError, Err: err}
	}
	s.logger.Printf("sent: %s", string(data))

	var lastReport time.Duration
	s.mux.Progress = func(waited time.Duration) {
		if waited-lastReport < progressReportEvery {
			return
		}
		lastReport = waited
		s.logger.Printf("still waiting for %q response (%ds elapsed, process: %s)",
			method, int(waited.Seconds()), s.proc.State())
	}
	defer func() { s.mux.Progress = nil }()

	for {
		ev, wait := s.mux.NextLine(deadline)
		switch wait {
		case Timeout:
			s.logger.Printf("no response to %q before deadline", method)
			return CallResult{Kind: OutcomeTimeout}
		case StreamClosed:
			for _, d := range s.mux.DrainDiagnostics(closingDrainWait) {
				s.diagnostics.Append(d)
				s.logger.Printf("stderr: %s", d.Text)
			}
			exit, _ := s.proc.WaitExit(exitStatusWait)
			s.logger.Printf("protocol channel closed before response to %q (exit code %d)", method, exit.Code)
			return CallResult{Kind: OutcomeProcessExited, Exit: exit}
		case GotLine:
			if ev.Source == SourceDiagnostic {
				s.diagnostics.Append(ev)
				s.logger.Printf("stderr: %s", ev.Text)
				continue
			}
			if !json.Valid([]byte(ev.Text)) {
				// Non-JSON output on the protocol channel is misrouted
				// diagnostic output, not a protocol failure.
				s.logger.Printf("non-protocol line on stdout: %q", ev.Text)
				s.diagnostics.Append(ev)
				continue
			}
			resp, err := ParseResponse(ev.Text)
			if err != nil {
				s.logger.Printf("protocol line is not a response envelope: %q", ev.Text)
				return CallResult{Kind: OutcomeProtocolError, RawLine: ev.Text, Err: err}
			}
			s.logger.Printf("received: %s", ev.Text)
			if !resp.IDMatches(id) {
				// Best-effort correlation only; with a single in-flight
				// request the next protocol line is the response.
				s.logger.Printf("response id %s does not match request id %d", resp.ID.JSONString(), id)
			}
			return CallResult{Kind: OutcomeResponse, Response: resp}
		}
	}
}

// CollectDiagnostics drains any diagnostic lines still queued in the
// multiplexer into the buffer, waiting up to maxWait. Used by scenarios that
// never issue a protocol call (expected-failure launches).
func (s *Session) CollectDiagnostics(maxWait time.Duration) {
	for _, d := range s.mux.DrainDiagnostics(maxWait) {
		s.diagnostics.Append(d)
		s.logger.Printf("stderr: %s", d.Text)
	}
}
