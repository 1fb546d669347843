package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testID(path ...string) TestID {
	return TestID{Path: path}
}

func TestEmptyFiltersRunEverything(t *testing.T) {
	var f RegexFilters
	assert.True(t, f.AsFilter(testID("anything", "at all")))
}

func TestMustMatchSelectsTests(t *testing.T) {
	var f RegexFilters
	require.NoError(t, f.MustMatch.Set("handshake"))

	assert.True(t, f.AsFilter(testID("snowflake", "handshake", "password via CLI flags")))
	assert.False(t, f.AsFilter(testID("snowflake", "validation", "no auth method")))
}

func TestMustNotMatchExcludesTests(t *testing.T) {
	var f RegexFilters
	require.NoError(t, f.MustNotMatch.Set("validation"))

	assert.True(t, f.AsFilter(testID("snowflake", "handshake")))
	assert.False(t, f.AsFilter(testID("snowflake", "validation", "no auth method")))
}

func TestMultiplePatternsAreORed(t *testing.T) {
	var f RegexFilters
	require.NoError(t, f.MustMatch.Set("handshake"))
	require.NoError(t, f.MustMatch.Set("discovery"))

	assert.True(t, f.AsFilter(testID("snowflake", "handshake")))
	assert.True(t, f.AsFilter(testID("snowflake", "discovery")))
	assert.False(t, f.AsFilter(testID("snowflake", "invocation")))
}

func TestInvalidRegexIsRejected(t *testing.T) {
	var list RegexList
	assert.Error(t, list.Set("(unclosed"))
	assert.False(t, list.IsDefined())
}
