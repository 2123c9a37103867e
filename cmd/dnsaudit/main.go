// Package main provides the entry point for dnsaudit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/steigr/dnsaudit/internal/audit"
	"github.com/steigr/dnsaudit/internal/baseline"
	"github.com/steigr/dnsaudit/internal/config"
	"github.com/steigr/dnsaudit/internal/dnsclient"
	"github.com/steigr/dnsaudit/internal/logging"
	"github.com/steigr/dnsaudit/internal/matcher"
	"github.com/steigr/dnsaudit/internal/metrics"
	"github.com/steigr/dnsaudit/internal/probe"
	"github.com/steigr/dnsaudit/internal/report"
	"github.com/steigr/dnsaudit/internal/resolver"
)

// App holds all the components of one audit run.
type App struct {
	Config   *config.Config
	Plan     *config.Plan
	Metrics  *metrics.Metrics
	Selector *resolver.Selector
	Matcher  matcher.Matcher
	Differ   *baseline.Differ
	Sink     report.Sink
}

// NewApp creates a new application instance with the given configuration.
func NewApp(cfg *config.Config) (*App, error) {
	// Initialize logger
	logFormat := logging.FormatText
	if cfg.LogFormat == "json" {
		logFormat = logging.FormatJSON
	}
	logger := logging.NewLogger(logging.Config{
		Format: logFormat,
		Debug:  cfg.Debug,
	})
	logging.SetDefault(logger)

	// Load the audit plan
	plan, err := config.LoadPlan(cfg.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit plan: %w", err)
	}

	// Create metrics
	m := metrics.NewMetrics("dnsaudit")

	// Create the test selection matcher
	testMatcher, err := matcher.ForPatterns(cfg.Only)
	if err != nil {
		return nil, fmt.Errorf("failed to create test matcher: %w", err)
	}

	// Create the resolver selector
	prober := probe.NewProber(logger, m)
	selector := resolver.NewSelector(prober, cfg.TryAllResolvers, logger, m)

	// Create baseline and report stores
	store := baseline.NewStore(cfg.BaselineDir)
	differ := baseline.NewDiffer(store, logger, m)
	sink := report.NewFileSink(cfg.ReportDir, logger, m)

	return &App{
		Config:   cfg,
		Plan:     plan,
		Metrics:  m,
		Selector: selector,
		Matcher:  testMatcher,
		Differ:   differ,
		Sink:     sink,
	}, nil
}

// Run executes the audit plan: select the run's resolver, run every matching
// query test, verify nameserver consistency, and diff the results against
// the stored baselines. A failing test is logged and counted, the remaining
// tests still run.
func (a *App) Run(ctx context.Context) error {
	candidates := make([]resolver.Resolver, 0, len(a.Plan.Resolvers))
	for _, spec := range a.Plan.Resolvers {
		protocol, err := dnsclient.ParseProtocol(spec.Type)
		if err != nil {
			return fmt.Errorf("resolver %s: %w", spec.IP, err)
		}
		candidates = append(candidates, resolver.Resolver{
			Address:  spec.IP,
			Protocol: protocol,
			DNSSEC:   spec.DNSSEC,
		})
	}

	active, err := a.Selector.Select(ctx, candidates)
	if err != nil {
		return err
	}

	engine := audit.NewEngine(active, a.Config.QueryConcurrency, logging.Default(), a.Metrics)

	ran := 0
	failed := 0
	for _, spec := range a.Plan.QueryTests() {
		if !a.Matcher.Match(spec.Name) {
			logging.Debugf("Skipping test %s", spec.Name)
			a.Metrics.RecordTest(metrics.TestSkipped)
			continue
		}
		ran++
		if err := a.runTest(ctx, engine, spec); err != nil {
			logging.Errorf("Test %s failed: %v", spec.Name, err)
			a.Metrics.RecordTest(metrics.TestFailed)
			failed++
			continue
		}
		a.Metrics.RecordTest(metrics.TestCompleted)
	}

	if a.Config.MetricsTextfile != "" {
		if err := a.Metrics.WriteTextfile(a.Config.MetricsTextfile); err != nil {
			logging.Errorf("Failed to write metrics textfile: %v", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tests failed", failed, ran)
	}
	if ran == 0 {
		logging.Warn("No tests matched the selection")
		return nil
	}
	logging.Infof("All %d tests completed", ran)
	return nil
}

// runTest runs one query test end to end: fan out, consistency check,
// baseline diff. Mismatch and drift reports go to the report sink.
func (a *App) runTest(ctx context.Context, engine *audit.Engine, spec config.TestSpec) error {
	protocol, err := dnsclient.ParseProtocol(spec.QueryProtocol)
	if err != nil {
		return err
	}
	test := audit.Test{
		Name:        spec.Name,
		QueryName:   spec.QueryName,
		QueryTypes:  spec.QueryTypes,
		Nameservers: spec.Nameservers,
		Protocol:    protocol,
	}

	logging.Infof("Running test %s: %s %v on %v", test.Name, test.QueryName, test.QueryTypes, test.Nameservers)
	snapshot, err := engine.RunTest(ctx, test)
	if err != nil {
		return err
	}

	for _, mismatch := range engine.Check(test, snapshot) {
		if _, err := a.Sink.Store(mismatch.Report()); err != nil {
			return fmt.Errorf("storing mismatch report: %w", err)
		}
	}

	drift, err := a.Differ.DiffAndUpdate(test, snapshot)
	if err != nil {
		return err
	}
	if drift != nil {
		if _, err := a.Sink.Store(drift.Report()); err != nil {
			return fmt.Errorf("storing drift report: %w", err)
		}
	}
	return nil
}

func main() {
	// Load configuration
	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()
	cfg.ParseFlags()

	if err := cfg.Validate(); err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	app, err := NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create application: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logging.Errorf("Audit run failed: %v", err)
		_ = logging.Sync()
		os.Exit(1)
	}
	_ = logging.Sync()
}
