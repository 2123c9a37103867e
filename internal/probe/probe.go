// Package probe verifies that candidate resolvers answer a control query
// correctly before they are trusted for a run.
package probe

import (
	"context"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/steigr/dnsaudit/internal/dnsclient"
	"github.com/steigr/dnsaudit/internal/logging"
	"github.com/steigr/dnsaudit/internal/metrics"
)

// rootServers holds the 13 well-known root nameserver names. A trustworthy
// recursive resolver must return at least one of them for a root NS query.
var rootServers = map[string]bool{
	"a.root-servers.net.": true,
	"b.root-servers.net.": true,
	"c.root-servers.net.": true,
	"d.root-servers.net.": true,
	"e.root-servers.net.": true,
	"f.root-servers.net.": true,
	"g.root-servers.net.": true,
	"h.root-servers.net.": true,
	"i.root-servers.net.": true,
	"j.root-servers.net.": true,
	"k.root-servers.net.": true,
	"l.root-servers.net.": true,
	"m.root-servers.net.": true,
}

// Prober health-checks resolvers with a root NS control query.
type Prober struct {
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewProber creates a prober. A nil logger falls back to the default logger.
func NewProber(logger *logging.Logger, m *metrics.Metrics) *Prober {
	if logger == nil {
		logger = logging.Default()
	}
	return &Prober{
		timeout: dnsclient.DefaultTimeout,
		logger:  logger,
		metrics: m,
	}
}

// Probe queries the root zone NS set through the resolver at address over
// the given transport. It reports true iff the answer names a root server.
// Protocol errors are absorbed and logged, never returned.
func (p *Prober) Probe(ctx context.Context, address string, protocol dnsclient.Protocol) bool {
	client := dnsclient.NewClient(protocol, p.timeout)
	query := dnsclient.NewQuery(".", dns.TypeNS, false)

	start := time.Now()
	response, _, err := client.Exchange(ctx, query, address)
	healthy := err == nil && answersFromRoot(response)
	if err != nil {
		p.logger.Debugf("probe query to %s failed: %v", address, err)
	}

	server := dnsclient.WithPort(address)
	p.logger.LogProbe(logging.ProbeEvent{
		Resolver:   server,
		Healthy:    healthy,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
	})
	if p.metrics != nil {
		p.metrics.RecordProbe(server, healthy)
	}
	return healthy
}

// answersFromRoot reports whether the answer section contains an NS record
// naming one of the root servers.
func answersFromRoot(response *dns.Msg) bool {
	for _, rr := range response.Answer {
		ns, ok := rr.(*dns.NS)
		if !ok {
			continue
		}
		if rootServers[strings.ToLower(ns.Ns)] {
			return true
		}
	}
	return false
}
