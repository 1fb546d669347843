package protocol

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortDeadline() time.Time {
	return time.Now().Add(2 * time.Second)
}

func requireLine(t *testing.T, m *Multiplexer, source Source, text string) {
	t.Helper()
	ev, wait := m.NextLine(shortDeadline())
	require.Equal(t, GotLine, wait)
	assert.Equal(t, source, ev.Source)
	assert.Equal(t, text, ev.Text)
}

func TestMultiplexerDeliversLinesFromBothStreams(t *testing.T) {
	protoR, protoW := io.Pipe()
	diagR, diagW := io.Pipe()
	m := NewMultiplexer(protoR, diagR, nil)

	go func() {
		io.WriteString(protoW, "{\"id\":1}\n")
		io.WriteString(diagW, "connecting to warehouse\n")
	}()

	seen := map[Source]string{}
	for i := 0; i < 2; i++ {
		ev, wait := m.NextLine(shortDeadline())
		require.Equal(t, GotLine, wait)
		seen[ev.Source] = ev.Text
	}
	assert.Equal(t, "{\"id\":1}", seen[SourceProtocol])
	assert.Equal(t, "connecting to warehouse", seen[SourceDiagnostic])
}

func TestNextLineTimesOutAtDeadline(t *testing.T) {
	protoR, _ := io.Pipe()
	diagR, _ := io.Pipe()
	m := NewMultiplexer(protoR, diagR, nil)
	m.pollInterval = 20 * time.Millisecond

	start := time.Now()
	_, wait := m.NextLine(time.Now().Add(100 * time.Millisecond))
	assert.Equal(t, Timeout, wait)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProgressIsReportedWhileWaiting(t *testing.T) {
	protoR, _ := io.Pipe()
	diagR, _ := io.Pipe()
	m := NewMultiplexer(protoR, diagR, nil)
	m.pollInterval = 10 * time.Millisecond

	calls := 0
	m.Progress = func(waited time.Duration) { calls++ }

	_, wait := m.NextLine(time.Now().Add(100 * time.Millisecond))
	assert.Equal(t, Timeout, wait)
	assert.Greater(t, calls, 2)
}

func TestFlushedLinesAreDeliveredBeforeStreamClosed(t *testing.T) {
	proto := strings.NewReader("line one\nline two\n")
	diagR, diagW := io.Pipe()
	defer diagW.Close()
	m := NewMultiplexer(proto, diagR, nil)

	requireLine(t, m, SourceProtocol, "line one")
	requireLine(t, m, SourceProtocol, "line two")

	_, wait := m.NextLine(shortDeadline())
	assert.Equal(t, StreamClosed, wait)
}

func TestStreamClosedIsSticky(t *testing.T) {
	proto := strings.NewReader("")
	diagR, diagW := io.Pipe()
	defer diagW.Close()
	m := NewMultiplexer(proto, diagR, nil)

	for i := 0; i < 3; i++ {
		_, wait := m.NextLine(shortDeadline())
		assert.Equal(t, StreamClosed, wait)
	}
}

func TestDiagnosticEOFDoesNotEndTheWait(t *testing.T) {
	protoR, protoW := io.Pipe()
	diag := strings.NewReader("final complaint\n")
	m := NewMultiplexer(protoR, diag, nil)

	requireLine(t, m, SourceDiagnostic, "final complaint")

	go func() {
		time.Sleep(50 * time.Millisecond)
		io.WriteString(protoW, "still here\n")
	}()
	requireLine(t, m, SourceProtocol, "still here")
}

func TestDrainDiagnosticsReturnsFlushedLines(t *testing.T) {
	proto := strings.NewReader("")
	diag := strings.NewReader("error: no auth method\nexiting\n")
	m := NewMultiplexer(proto, diag, nil)

	lines := m.DrainDiagnostics(2 * time.Second)
	require.Len(t, lines, 2)
	assert.Equal(t, "error: no auth method", lines[0].Text)
	assert.Equal(t, "exiting", lines[1].Text)
}

func TestDrainDiagnosticsStopsAtDeadlineWhileStreamOpen(t *testing.T) {
	protoR, _ := io.Pipe()
	diagR, _ := io.Pipe()
	m := NewMultiplexer(protoR, diagR, nil)

	start := time.Now()
	lines := m.DrainDiagnostics(100 * time.Millisecond)
	assert.Empty(t, lines)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLongLinesAreNotSplit(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	proto := strings.NewReader(long + "\n")
	diagR, diagW := io.Pipe()
	defer diagW.Close()
	m := NewMultiplexer(proto, diagR, nil)

	ev, wait := m.NextLine(shortDeadline())
	require.Equal(t, GotLine, wait)
	assert.Len(t, ev.Text, 200*1024)
}
