package calc

import (
	"fmt"
	"regexp"
)

// PatternSet is an ordered list of regular expressions, most specific first.
// Match reports the first pattern that matches, so the index doubles as a
// specificity rank.
type PatternSet struct {
	exprs []*regexp.Regexp
}

// NewPatternSet compiles exprs in order.
func NewPatternSet(exprs ...string) (PatternSet, error) {
	ps := PatternSet{exprs: make([]*regexp.Regexp, 0, len(exprs))}
	for _, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			return PatternSet{}, fmt.Errorf("invalid pattern %q: %w", e, err)
		}
		ps.exprs = append(ps.exprs, re)
	}
	return ps, nil
}

// MustPatternSet is NewPatternSet for package-level pattern tables.
func MustPatternSet(exprs ...string) PatternSet {
	ps, err := NewPatternSet(exprs...)
	if err != nil {
		panic(err)
	}
	return ps
}

// Match returns the index of the first matching pattern.
func (ps PatternSet) Match(s string) (int, bool) {
	for i, re := range ps.exprs {
		if re.MatchString(s) {
			return i, true
		}
	}
	return -1, false
}

// Matches reports whether any pattern matches s.
func (ps PatternSet) Matches(s string) bool {
	_, ok := ps.Match(s)
	return ok
}

// Len returns the number of patterns.
func (ps PatternSet) Len() int {
	return len(ps.exprs)
}

// Strings returns the source expressions.
func (ps PatternSet) Strings() []string {
	out := make([]string, len(ps.exprs))
	for i, re := range ps.exprs {
		out[i] = re.String()
	}
	return out
}
