package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Results accumulates the outcome of every test in a run. Skipped tests are
// tracked separately and never affect OK().
type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skips    []TestResult
}

// TestResult is the recorded outcome of a single test.
type TestResult struct {
	TestID     TestID
	Errors     []error
	Skipped    bool
	SkipReason string
}

// OK is true if no test failed. Skips do not count as failures.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// TestID identifies a test as a path of names, e.g. "snowflake/auth/password via CLI".
type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// PrintResults writes a human-readable summary of a completed run.
func PrintResults(dest io.Writer, results Results) {
	passed := len(results.Tests) - len(results.Failures) - len(results.Skips)
	fmt.Fprintf(dest, "Test run complete: %d passed, %d failed, %d skipped\n",
		passed, len(results.Failures), len(results.Skips))

	if len(results.Failures) > 0 {
		fmt.Fprintln(dest)
		color.New(color.FgRed, color.Bold).Fprintln(dest, "FAILED TESTS:")
		for _, f := range results.Failures {
			color.New(color.FgRed).Fprintf(dest, "* %s\n", f.TestID)
			for _, err := range f.Errors {
				for _, line := range strings.Split(err.Error(), "\n") {
					fmt.Fprintf(dest, "    %s\n", line)
				}
			}
		}
	}
}
