package resolver

import (
	"context"

	"github.com/steigr/dnsaudit/internal/dnsclient"
	"github.com/steigr/dnsaudit/internal/logging"
	"github.com/steigr/dnsaudit/internal/metrics"
)

// HealthProber reports whether a resolver answers a control query correctly.
type HealthProber interface {
	Probe(ctx context.Context, address string, protocol dnsclient.Protocol) bool
}

// Selector picks the run's active resolver from the configured candidates.
type Selector struct {
	prober  HealthProber
	tryAll  bool
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewSelector creates a Selector. With tryAll false only the first candidate
// is probed and the run fails if it is unhealthy; with tryAll true unhealthy
// candidates are skipped and the first healthy one wins.
func NewSelector(prober HealthProber, tryAll bool, logger *logging.Logger, m *metrics.Metrics) *Selector {
	if logger == nil {
		logger = logging.Default()
	}
	return &Selector{
		prober:  prober,
		tryAll:  tryAll,
		logger:  logger,
		metrics: m,
	}
}

// Select probes the candidates in plan order and returns the active resolver
// for the run, or ErrNoWorkingResolver when none answers the probe.
func (s *Selector) Select(ctx context.Context, candidates []Resolver) (*Active, error) {
	for _, candidate := range candidates {
		if s.prober.Probe(ctx, candidate.Address, candidate.Protocol) {
			s.logger.Infof("using resolver %s over %s", candidate.Address, candidate.Protocol)
			return NewActive(candidate, s.logger, s.metrics), nil
		}
		s.logger.Warnf("resolver %s failed the probe", candidate.Address)
		if !s.tryAll {
			break
		}
	}
	return nil, ErrNoWorkingResolver
}
