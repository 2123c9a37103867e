package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegexMatcher(t *testing.T) {
	tests := []struct {
		name        string
		patterns    []string
		expectError bool
	}{
		{
			name:        "empty patterns",
			patterns:    []string{},
			expectError: false,
		},
		{
			name:        "valid patterns",
			patterns:    []string{`^corp-`, `zone$`, `.*-prod$`},
			expectError: false,
		},
		{
			name:        "invalid regex",
			patterns:    []string{"[invalid"},
			expectError: true,
		},
		{
			name:        "patterns with whitespace",
			patterns:    []string{`  ^corp-  `, ""},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewRegexMatcher(tt.patterns)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, m)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, m)
			}
		})
	}
}

func TestRegexMatcher_Match(t *testing.T) {
	patterns := []string{
		`^corp-`,
		`-prod$`,
	}

	m, err := NewRegexMatcher(patterns)
	require.NoError(t, err)

	tests := []struct {
		name     string
		expected bool
	}{
		{"corp-zone", true},
		{"corp-mail", true},
		{"edge-corp", false},
		{"payments-prod", true},
		{"payments-staging", false},
		{"corp-zone-prod", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := m.Match(tt.name)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRegexMatcher_MatchingPattern(t *testing.T) {
	patterns := []string{
		`^corp-`,
		`-prod$`,
	}

	m, err := NewRegexMatcher(patterns)
	require.NoError(t, err)

	tests := []struct {
		name     string
		expected string
	}{
		{"corp-zone", `^corp-`},
		{"payments-prod", `-prod$`},
		{"payments-staging", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := m.MatchingPattern(tt.name)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRegexMatcher_Patterns(t *testing.T) {
	patterns := []string{`^corp-`, `-prod$`}

	m, err := NewRegexMatcher(patterns)
	require.NoError(t, err)

	result := m.Patterns()
	assert.Equal(t, patterns, result)
}

func TestAllMatcher(t *testing.T) {
	m := NewAllMatcher()

	assert.True(t, m.Match("corp-zone"))
	assert.True(t, m.Match(""))
	assert.Equal(t, "", m.MatchingPattern("corp-zone"))
	assert.Empty(t, m.Patterns())
}

func TestForPatterns(t *testing.T) {
	t.Run("empty selects everything", func(t *testing.T) {
		m, err := ForPatterns(nil)
		require.NoError(t, err)
		assert.True(t, m.Match("any-test"))
	})

	t.Run("patterns select by regex", func(t *testing.T) {
		m, err := ForPatterns([]string{`^corp-`})
		require.NoError(t, err)
		assert.True(t, m.Match("corp-zone"))
		assert.False(t, m.Match("payments-prod"))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := ForPatterns([]string{"[invalid"})
		assert.Error(t, err)
	})
}
