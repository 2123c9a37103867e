// Package matcher selects audit tests by name using regular expressions.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher decides which audit tests a run executes.
type Matcher interface {
	// Match reports whether a test name is selected.
	Match(name string) bool
	// MatchingPattern returns the first pattern selecting the name or empty string if none match.
	MatchingPattern(name string) string
	// Patterns returns all configured patterns.
	Patterns() []string
}

// RegexMatcher implements Matcher using compiled regular expressions.
type RegexMatcher struct {
	patterns []*regexp.Regexp
	raw      []string
}

// NewRegexMatcher creates a new RegexMatcher from a slice of regex pattern strings.
func NewRegexMatcher(patterns []string) (*RegexMatcher, error) {
	m := &RegexMatcher{
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
		raw:      make([]string, 0, len(patterns)),
	}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		compiled, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", p, err)
		}

		m.patterns = append(m.patterns, compiled)
		m.raw = append(m.raw, p)
	}

	return m, nil
}

// Match returns true if the test name matches any of the patterns.
func (m *RegexMatcher) Match(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}

	return false
}

// MatchingPattern returns the first pattern that matches the test name, or empty string if none match.
func (m *RegexMatcher) MatchingPattern(name string) string {
	for i, p := range m.patterns {
		if p.MatchString(name) {
			return m.raw[i]
		}
	}

	return ""
}

// Patterns returns all configured patterns.
func (m *RegexMatcher) Patterns() []string {
	result := make([]string, len(m.raw))
	copy(result, m.raw)
	return result
}

// AllMatcher is a matcher that selects every test.
type AllMatcher struct{}

// NewAllMatcher creates a new AllMatcher.
func NewAllMatcher() *AllMatcher {
	return &AllMatcher{}
}

// Match always returns true.
func (m *AllMatcher) Match(name string) bool {
	return true
}

// MatchingPattern always returns an empty string.
func (m *AllMatcher) MatchingPattern(name string) string {
	return ""
}

// Patterns returns an empty slice.
func (m *AllMatcher) Patterns() []string {
	return []string{}
}

// ForPatterns returns the matcher for a selection pattern list: every test
// when the list is empty, a RegexMatcher otherwise.
func ForPatterns(patterns []string) (Matcher, error) {
	if len(patterns) == 0 {
		return NewAllMatcher(), nil
	}
	return NewRegexMatcher(patterns)
}
