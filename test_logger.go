package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/dbtoolbox/mcp-contract-tests/framework"
)

// ConsoleTestLogger reports test progress on standard output as the suite
// runs. Debug output captured during a test is replayed after it finishes,
// depending on the outcome.
type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleTestLogger) TestStarted(id framework.TestID) {
	fmt.Printf("[%s]\n", id)
}

func (c ConsoleTestLogger) TestError(id framework.TestID, err error) {
	color.New(color.FgRed).Printf("  %s\n", err)
}

func (c ConsoleTestLogger) TestFinished(id framework.TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		color.New(color.FgRed, color.Bold).Printf("  [%s] FAILED\n", id)
	}
	if (failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess) {
		debugOutput.Dump(os.Stdout, "    ")
	}
}

func (c ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	if reason == "" {
		color.New(color.FgYellow).Printf("  [%s] SKIPPED\n", id)
	} else {
		color.New(color.FgYellow).Printf("  [%s] SKIPPED: %s\n", id, reason)
	}
}
