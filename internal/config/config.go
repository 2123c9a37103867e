// Package config handles configuration parsing from CLI flags, environment
// variables and the YAML audit plan.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Config holds the process-level configuration for dnsaudit. The audit plan
// itself (resolvers and tests) lives in a separate YAML file, see Plan.
type Config struct {
	// PlanPath is the path to the YAML audit plan (first positional argument).
	PlanPath string

	// BaselineDir is the directory holding per-test baseline snapshots.
	BaselineDir string

	// ReportDir is the directory mismatch reports are written to.
	ReportDir string

	// MetricsTextfile, when set, receives the run's prometheus metrics in
	// textfile-collector format at the end of the run.
	MetricsTextfile string

	// LogFormat is the log output format: "text" or "json".
	LogFormat string

	// Only holds regex patterns selecting tests by name. Empty runs all tests.
	Only []string

	// TryAllResolvers probes every configured resolver until one passes.
	// When false only the first configured resolver is probed.
	TryAllResolvers bool

	// QueryConcurrency is the number of concurrent fan-out queries per test.
	QueryConcurrency int

	// Debug enables debug logging.
	Debug bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		PlanPath:         "",
		BaselineDir:      ".",
		ReportDir:        ".",
		MetricsTextfile:  "",
		LogFormat:        "text",
		Only:             []string{},
		TryAllResolvers:  false,
		QueryConcurrency: 1,
		Debug:            false,
	}
}

// ParseFlags parses command line flags into the config. The first positional
// argument is the audit plan path.
func (c *Config) ParseFlags() {
	var onlyStr string

	pflag.StringVar(&c.BaselineDir, "baseline-dir", c.BaselineDir, "Directory holding per-test baseline snapshots")
	pflag.StringVar(&c.ReportDir, "report-dir", c.ReportDir, "Directory mismatch reports are written to")
	pflag.StringVar(&c.MetricsTextfile, "metrics-textfile", c.MetricsTextfile, "Write prometheus metrics to this file at the end of the run")
	pflag.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")
	pflag.StringVar(&onlyStr, "only", "", "Newline-delimited regex patterns selecting tests by name")
	pflag.BoolVar(&c.TryAllResolvers, "try-all-resolvers", c.TryAllResolvers, "Probe every configured resolver until one passes instead of only the first")
	pflag.IntVar(&c.QueryConcurrency, "query-concurrency", c.QueryConcurrency, "Number of concurrent fan-out queries per test")
	pflag.BoolVarP(&c.Debug, "verbose", "v", c.Debug, "Enable verbose output")

	pflag.Parse()

	if onlyStr != "" {
		c.Only = splitPatterns(onlyStr)
	}
	if pflag.NArg() > 0 {
		c.PlanPath = pflag.Arg(0)
	}
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables take precedence over default values but not CLI flags.
func (c *Config) LoadFromEnv() {
	if dir := os.Getenv("BASELINE_DIR"); dir != "" {
		c.BaselineDir = dir
	}
	if dir := os.Getenv("REPORT_DIR"); dir != "" {
		c.ReportDir = dir
	}
	if path := os.Getenv("METRICS_TEXTFILE"); path != "" {
		c.MetricsTextfile = path
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.LogFormat = format
	}
	if patterns := os.Getenv("ONLY_TESTS"); patterns != "" {
		c.Only = splitPatterns(patterns)
	}
	if tryAll := os.Getenv("TRY_ALL_RESOLVERS"); tryAll == "true" || tryAll == "1" {
		c.TryAllResolvers = true
	}
	if concurrency := os.Getenv("QUERY_CONCURRENCY"); concurrency != "" {
		if parsed, err := strconv.Atoi(concurrency); err == nil {
			c.QueryConcurrency = parsed
		}
	}
	if debug := os.Getenv("DEBUG"); debug == "true" || debug == "1" {
		c.Debug = true
	}
}

// splitPatterns splits a newline-delimited string into a slice of patterns.
func splitPatterns(s string) []string {
	lines := strings.Split(s, "\n")
	patterns := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PlanPath == "" {
		return fmt.Errorf("audit plan path is required")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.QueryConcurrency < 1 {
		return fmt.Errorf("query concurrency must be at least 1, got %d", c.QueryConcurrency)
	}
	return nil
}
