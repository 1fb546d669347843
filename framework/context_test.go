package framework

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runNoFilter(action func(*Context)) Results {
	return Run(nil, nil, action)
}

func TestRunRecordsPassingSubtests(t *testing.T) {
	results := runNoFilter(func(c *Context) {
		c.Run("first", func(c *Context) {})
		c.Run("second", func(c *Context) {})
	})

	assert.True(t, results.OK())
	require.Len(t, results.Tests, 2)
	assert.Equal(t, "first", results.Tests[0].TestID.String())
	assert.Equal(t, "second", results.Tests[1].TestID.String())
	assert.Len(t, results.Failures, 0)
}

func TestErrorfMarksTestFailedWithoutStopping(t *testing.T) {
	reachedEnd := false
	results := runNoFilter(func(c *Context) {
		c.Run("failing", func(c *Context) {
			c.Errorf("something went wrong: %d", 42)
			reachedEnd = true
		})
	})

	assert.True(t, reachedEnd)
	assert.False(t, results.OK())
	require.Len(t, results.Failures, 1)
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Equal(t, "something went wrong: 42", results.Failures[0].Errors[0].Error())
}

func TestFailNowStopsTheTest(t *testing.T) {
	reachedEnd := false
	results := runNoFilter(func(c *Context) {
		c.Run("failing", func(c *Context) {
			c.Errorf("fatal problem")
			c.FailNow()
			reachedEnd = true
		})
	})

	assert.False(t, reachedEnd)
	require.Len(t, results.Failures, 1)
}

func TestSkipDoesNotCountAsFailure(t *testing.T) {
	results := runNoFilter(func(c *Context) {
		c.Run("skipped", func(c *Context) {
			c.SkipWithReason("not applicable here")
		})
	})

	assert.True(t, results.OK())
	require.Len(t, results.Skips, 1)
	assert.Equal(t, "not applicable here", results.Skips[0].SkipReason)
}

func TestUnexpectedPanicBecomesFailure(t *testing.T) {
	results := runNoFilter(func(c *Context) {
		c.Run("panicking", func(c *Context) {
			panic(errors.New("boom"))
		})
	})

	require.Len(t, results.Failures, 1)
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "boom")
}

func TestSubtestIDsIncludeParentPath(t *testing.T) {
	var ids []string
	results := runNoFilter(func(c *Context) {
		c.Run("outer", func(c *Context) {
			c.Run("inner one", func(c *Context) {
				ids = append(ids, c.ID().String())
			})
			c.Run("inner two", func(c *Context) {
				ids = append(ids, c.ID().String())
			})
		})
	})

	assert.True(t, results.OK())
	assert.Equal(t, []string{"outer/inner one", "outer/inner two"}, ids)
}

func TestFilterExcludesTestsWithoutRecordingThem(t *testing.T) {
	ran := []string{}
	filter := func(id TestID) bool { return id.String() != "excluded" }
	results := Run(filter, nil, func(c *Context) {
		c.Run("included", func(c *Context) { ran = append(ran, "included") })
		c.Run("excluded", func(c *Context) { ran = append(ran, "excluded") })
	})

	assert.Equal(t, []string{"included"}, ran)
	assert.Len(t, results.Tests, 1)
}

func TestDebugOutputIsCapturedPerTest(t *testing.T) {
	var captured CapturedOutput
	logger := recordingTestLogger{finished: func(id TestID, failed bool, output CapturedOutput) {
		captured = output
	}}
	Run(nil, logger, func(c *Context) {
		c.Run("with debug", func(c *Context) {
			c.Debug("checkpoint %d", 1)
			c.DebugLogger().Printf("checkpoint %d", 2)
		})
	})

	require.Len(t, captured, 2)
	assert.Equal(t, "checkpoint 1", captured[0].Message)
	assert.Equal(t, "checkpoint 2", captured[1].Message)
}

type recordingTestLogger struct {
	finished func(TestID, bool, CapturedOutput)
}

func (r recordingTestLogger) TestStarted(TestID)        {}
func (r recordingTestLogger) TestError(TestID, error)   {}
func (r recordingTestLogger) TestSkipped(TestID, string) {}
func (r recordingTestLogger) TestFinished(id TestID, failed bool, output CapturedOutput) {
	if r.finished != nil {
		r.finished(id, failed, output)
	}
}
