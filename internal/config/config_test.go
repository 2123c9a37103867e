package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Empty(t, cfg.PlanPath)
	assert.Equal(t, ".", cfg.BaselineDir)
	assert.Equal(t, ".", cfg.ReportDir)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Only)
	assert.False(t, cfg.TryAllResolvers)
	assert.Equal(t, 1, cfg.QueryConcurrency)
	assert.False(t, cfg.Debug)
}

func TestSplitPatterns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: []string{},
		},
		{
			name:     "single pattern",
			input:    "zone-a",
			expected: []string{"zone-a"},
		},
		{
			name:     "multiple patterns",
			input:    "zone-a\nzone-b",
			expected: []string{"zone-a", "zone-b"},
		},
		{
			name:     "patterns with empty lines",
			input:    "zone-a\n\nzone-b\n",
			expected: []string{"zone-a", "zone-b"},
		},
		{
			name:     "patterns with whitespace",
			input:    "  zone-a  \n  zone-b  ",
			expected: []string{"zone-a", "zone-b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitPatterns(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BASELINE_DIR", "/var/lib/dnsaudit")
	t.Setenv("REPORT_DIR", "/var/log/dnsaudit")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/dnsaudit.prom")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("ONLY_TESTS", "zone-a\nzone-b")
	t.Setenv("TRY_ALL_RESOLVERS", "true")
	t.Setenv("QUERY_CONCURRENCY", "4")
	t.Setenv("DEBUG", "1")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "/var/lib/dnsaudit", cfg.BaselineDir)
	assert.Equal(t, "/var/log/dnsaudit", cfg.ReportDir)
	assert.Equal(t, "/var/lib/node_exporter/dnsaudit.prom", cfg.MetricsTextfile)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"zone-a", "zone-b"}, cfg.Only)
	assert.True(t, cfg.TryAllResolvers)
	assert.Equal(t, 4, cfg.QueryConcurrency)
	assert.True(t, cfg.Debug)
}

func TestLoadFromEnv_EmptyValues(t *testing.T) {
	for _, name := range []string{
		"BASELINE_DIR", "REPORT_DIR", "METRICS_TEXTFILE", "LOG_FORMAT",
		"ONLY_TESTS", "TRY_ALL_RESOLVERS", "QUERY_CONCURRENCY", "DEBUG",
	} {
		t.Setenv(name, "")
	}

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, ".", cfg.BaselineDir)
	assert.Equal(t, ".", cfg.ReportDir)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Only)
	assert.False(t, cfg.TryAllResolvers)
	assert.Equal(t, 1, cfg.QueryConcurrency)
	assert.False(t, cfg.Debug)
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)

	os.Args = []string{
		"test",
		"--baseline-dir=/tmp/baselines",
		"--report-dir=/tmp/reports",
		"--metrics-textfile=/tmp/dnsaudit.prom",
		"--log-format=json",
		"--only=zone-a\nzone-b",
		"--try-all-resolvers",
		"--query-concurrency=8",
		"-v",
		"audit-plan.yaml",
	}

	cfg := DefaultConfig()
	cfg.ParseFlags()

	assert.Equal(t, "/tmp/baselines", cfg.BaselineDir)
	assert.Equal(t, "/tmp/reports", cfg.ReportDir)
	assert.Equal(t, "/tmp/dnsaudit.prom", cfg.MetricsTextfile)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"zone-a", "zone-b"}, cfg.Only)
	assert.True(t, cfg.TryAllResolvers)
	assert.Equal(t, 8, cfg.QueryConcurrency)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "audit-plan.yaml", cfg.PlanPath)
}

func TestParseFlags_Defaults(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)

	os.Args = []string{"test", "audit-plan.yaml"}

	cfg := DefaultConfig()
	cfg.ParseFlags()

	assert.Equal(t, "audit-plan.yaml", cfg.PlanPath)
	assert.Equal(t, ".", cfg.BaselineDir)
	assert.Empty(t, cfg.Only)
	assert.False(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "valid",
			mutate:      func(c *Config) { c.PlanPath = "plan.yaml" },
			expectError: false,
		},
		{
			name:        "missing plan path",
			mutate:      func(c *Config) {},
			expectError: true,
		},
		{
			name: "unknown log format",
			mutate: func(c *Config) {
				c.PlanPath = "plan.yaml"
				c.LogFormat = "xml"
			},
			expectError: true,
		},
		{
			name: "zero concurrency",
			mutate: func(c *Config) {
				c.PlanPath = "plan.yaml"
				c.QueryConcurrency = 0
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
