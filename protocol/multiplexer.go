package protocol

import (
	"bufio"
	"io"
	"time"

	"github.com/dbtoolbox/mcp-contract-tests/framework"
)

// Source identifies which channel a line arrived on.
type Source int

const (
	SourceProtocol Source = iota
	SourceDiagnostic
)

func (s Source) String() string {
	if s == SourceProtocol {
		return "protocol"
	}
	return "diagnostic"
}

// LineEvent is one complete line observed on either channel.
type LineEvent struct {
	Source     Source
	Text       string
	ObservedAt time.Time
}

// Wait is the outcome of a NextLine call.
type Wait int

const (
	// GotLine means a line was produced before the deadline.
	GotLine Wait = iota
	// Timeout means the deadline passed with no line and the protocol
	// channel still open.
	Timeout
	// StreamClosed means the protocol channel reached EOF. Every line that
	// was flushed before the close has already been delivered.
	StreamClosed
)

const (
	scannerInitialBuffer = 64 * 1024
	scannerMaxToken      = 8 * 1024 * 1024
	defaultPollInterval  = time.Second
)

type muxEvent struct {
	line   LineEvent
	eof    bool
	source Source
}

// Multiplexer watches the protocol and diagnostic channels of one target
// process, one reader goroutine per stream feeding a shared ordered queue.
// NextLine is not safe for concurrent use; a session is the sole consumer.
type Multiplexer struct {
	events       chan muxEvent
	logger       framework.Logger
	pollInterval time.Duration

	// Progress, if set, is invoked once per poll interval while a wait is in
	// progress, with the time waited so far. It must not block.
	Progress func(waited time.Duration)

	protocolClosed   bool
	diagnosticClosed bool
}

// NewMultiplexer starts watching the two streams. Both readers run until
// their stream reaches EOF, which happens when the target process exits and
// the write ends of its pipes close.
func NewMultiplexer(protocolOut, diagnosticOut io.Reader, logger framework.Logger) *Multiplexer {
	if logger == nil {
		logger = framework.NullLogger()
	}
	m := &Multiplexer{
		events:       make(chan muxEvent, 64),
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
	go m.readLines(SourceProtocol, protocolOut)
	go m.readLines(SourceDiagnostic, diagnosticOut)
	return m
}

func (m *Multiplexer) readLines(source Source, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxToken)
	for scanner.Scan() {
		m.events <- muxEvent{line: LineEvent{Source: source, Text: scanner.Text(), ObservedAt: time.Now()}}
	}
	if err := scanner.Err(); err != nil {
		m.logger.Printf("error reading %s channel: %s", source, err)
	}
	m.events <- muxEvent{eof: true, source: source}
}

// NextLine blocks until a line is available on either channel, the protocol
// channel closes, or the deadline passes, whichever comes first. The wait
// is sliced into bounded poll intervals so it returns within one interval of
// the deadline and never busy-spins.
func (m *Multiplexer) NextLine(deadline time.Time) (LineEvent, Wait) {
	waitStart := time.Now()
	for {
		if m.protocolClosed {
			return LineEvent{}, StreamClosed
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return LineEvent{}, Timeout
		}
		slice := m.pollInterval
		if remaining < slice {
			slice = remaining
		}
		timer := time.NewTimer(slice)
		select {
		case ev := <-m.events:
			timer.Stop()
			if ev.eof {
				if ev.source == SourceProtocol {
					m.protocolClosed = true
					return LineEvent{}, StreamClosed
				}
				m.diagnosticClosed = true
				continue
			}
			return ev.line, GotLine
		case <-timer.C:
			if m.Progress != nil {
				m.Progress(time.Since(waitStart))
			}
		}
	}
}

// DrainDiagnostics collects diagnostic lines that are still queued (or still
// in flight from a process that just exited) for up to maxWait, returning
// them in arrival order. It stops early once the diagnostic channel has
// closed and the queue is drained.
func (m *Multiplexer) DrainDiagnostics(maxWait time.Duration) []LineEvent {
	var lines []LineEvent
	deadline := time.Now().Add(maxWait)
	for {
		if m.diagnosticClosed {
			// One non-blocking sweep for anything already queued.
			for {
				select {
				case ev := <-m.events:
					if ev.eof {
						if ev.source == SourceProtocol {
							m.protocolClosed = true
						}
						continue
					}
					if ev.line.Source == SourceDiagnostic {
						lines = append(lines, ev.line)
					}
				default:
					return lines
				}
			}
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return lines
		}
		timer := time.NewTimer(remaining)
		select {
		case ev := <-m.events:
			timer.Stop()
			if ev.eof {
				if ev.source == SourceProtocol {
					m.protocolClosed = true
				} else {
					m.diagnosticClosed = true
				}
				continue
			}
			if ev.line.Source == SourceDiagnostic {
				lines = append(lines, ev.line)
			}
		case <-timer.C:
			return lines
		}
	}
}
