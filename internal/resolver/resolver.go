// Package resolver selects the recursive resolver for a run and resolves
// nameserver hostnames through it.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"

	"github.com/steigr/dnsaudit/internal/dnsclient"
	"github.com/steigr/dnsaudit/internal/logging"
	"github.com/steigr/dnsaudit/internal/metrics"
)

// lookupAttempts caps the underlying queries of one hostname lookup.
const lookupAttempts = 10

// Resolver is one candidate recursive resolver from the audit plan.
type Resolver struct {
	// Address is the resolver address, port 53 implied when absent.
	Address string
	// Protocol is the transport used to reach the resolver.
	Protocol dnsclient.Protocol
	// DNSSEC asks for DNSSEC records on every lookup through this resolver.
	DNSSEC bool
}

// Active is the resolver selected for the run. It is immutable after
// selection and passed explicitly to everything that resolves names, so a
// run carries no process-wide resolver state.
type Active struct {
	resolver Resolver
	client   *dnsclient.Client
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewActive wraps a probed resolver for use as the run's active resolver.
// A nil logger falls back to the default logger.
func NewActive(r Resolver, logger *logging.Logger, m *metrics.Metrics) *Active {
	if logger == nil {
		logger = logging.Default()
	}
	return &Active{
		resolver: r,
		client:   dnsclient.NewClient(r.Protocol, dnsclient.DefaultTimeout),
		logger:   logger,
		metrics:  m,
	}
}

// Address returns the resolver address as configured.
func (a *Active) Address() string {
	return a.resolver.Address
}

// Protocol returns the transport used to reach the resolver.
func (a *Active) Protocol() dnsclient.Protocol {
	return a.resolver.Protocol
}

// DNSSEC reports whether lookups through this resolver ask for DNSSEC
// records.
func (a *Active) DNSSEC() bool {
	return a.resolver.DNSSEC
}

// LookupA resolves hostname to its IPv4 addresses through the active
// resolver. Protocol errors are retried immediately, up to lookupAttempts
// underlying queries. A lookup that never obtains an A record fails with
// ErrNoRecordFound; with DNSSEC enabled the EDNS options of the last
// response are logged first as diagnostic context.
func (a *Active) LookupA(ctx context.Context, hostname string) ([]string, error) {
	var addresses []string
	var lastResponse *dns.Msg

	attempts := lookupAttempts
	for {
		query := dnsclient.NewQuery(hostname, dns.TypeA, a.resolver.DNSSEC)
		response, rtt, err := a.client.Exchange(ctx, query, a.resolver.Address)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("lookup %s: %w", hostname, ctx.Err())
			}
			if !dnsclient.IsProtocolError(err) {
				return nil, fmt.Errorf("lookup %s: %w", hostname, err)
			}
			a.logger.LogQueryError(dnsclient.WithPort(a.resolver.Address), "A", dns.Fqdn(hostname), err)
			if a.metrics != nil {
				a.metrics.RecordQueryError(dnsclient.WithPort(a.resolver.Address))
			}
			attempts--
			if attempts == 0 {
				break
			}
			if a.metrics != nil {
				a.metrics.RecordLookupRetry()
			}
			continue
		}

		a.logQuery(hostname, response, rtt)
		lastResponse = response
		for _, rr := range response.Answer {
			if rec, ok := rr.(*dns.A); ok {
				addresses = append(addresses, rec.A.String())
			}
		}
		break
	}

	if len(addresses) == 0 {
		if a.resolver.DNSSEC {
			if options := dnsclient.EdnsOptions(lastResponse); len(options) > 0 {
				a.logger.Infof("EDNS options from %s: %v", a.resolver.Address, options)
			}
		}
		return nil, fmt.Errorf("%w: no A record for %s at %s", ErrNoRecordFound, hostname, a.resolver.Address)
	}
	return addresses, nil
}

func (a *Active) logQuery(hostname string, response *dns.Msg, rtt time.Duration) {
	a.logger.LogQuery(logging.QueryEvent{
		Server:     dnsclient.WithPort(a.resolver.Address),
		Protocol:   string(a.resolver.Protocol),
		Type:       "A",
		Name:       dns.Fqdn(hostname),
		Rcode:      dns.RcodeToString[response.Rcode],
		Answers:    len(response.Answer),
		DurationMs: float64(rtt.Microseconds()) / 1000.0,
	})
	if a.metrics != nil {
		a.metrics.RecordQuery(string(a.resolver.Protocol), "A", rtt.Seconds())
	}
}
