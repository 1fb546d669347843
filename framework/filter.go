package framework

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter decides whether to run a specific test.
type Filter func(TestID) bool

// RegexFilters is the standard run/skip filtering configured from the
// command line: a test runs if it matches at least one --run pattern (or no
// --run patterns were given) and matches no --skip pattern.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

func (r RegexFilters) AsFilter(id TestID) bool {
	name := id.String()
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(name)) &&
		!r.MustNotMatch.AnyMatch(name)
}

// Describe prints a summary of the active filter criteria, if any.
func (r RegexFilters) Describe(dest io.Writer) {
	if !r.MustMatch.IsDefined() && !r.MustNotMatch.IsDefined() {
		return
	}
	fmt.Fprintln(dest, "Some scenarios will be skipped based on the filter criteria for this run:")
	if r.MustMatch.IsDefined() {
		fmt.Fprintf(dest, "  skip any not matching %s\n", r.MustMatch)
	}
	if r.MustNotMatch.IsDefined() {
		fmt.Fprintf(dest, "  skip any matching %s\n", r.MustNotMatch)
	}
	fmt.Fprintln(dest)
}

// RegexList is a repeatable command-line flag holding regex patterns.
type RegexList struct {
	patterns []*regexp.Regexp
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command-line parser.
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

// Type identifies the flag value for cobra's usage text.
func (r *RegexList) Type() string { return "regex" }

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
