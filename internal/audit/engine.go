// Package audit fans identical queries out to every nameserver of a zone and
// verifies the answers agree.
package audit

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"github.com/steigr/dnsaudit/internal/dnsclient"
	"github.com/steigr/dnsaudit/internal/logging"
	"github.com/steigr/dnsaudit/internal/metrics"
)

// Test is one query consistency test from the audit plan.
type Test struct {
	// Name identifies the test and keys its baseline.
	Name string
	// QueryName is the domain queried on every nameserver.
	QueryName string
	// QueryTypes lists the record types to query, in textual form.
	QueryTypes []string
	// Nameservers lists the nameserver hostnames under audit.
	Nameservers []string
	// Protocol is the transport for the fan-out queries.
	Protocol dnsclient.Protocol
}

// ActiveResolver is the part of the run's resolver the engine needs.
type ActiveResolver interface {
	LookupA(ctx context.Context, hostname string) ([]string, error)
	DNSSEC() bool
}

// Engine runs audit tests through the active resolver.
type Engine struct {
	active      ActiveResolver
	concurrency int
	timeout     time.Duration
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

// NewEngine creates an Engine. Concurrency bounds the parallel fan-out
// queries of one test; 1 keeps them strictly sequential. A nil logger falls
// back to the default logger.
func NewEngine(active ActiveResolver, concurrency int, logger *logging.Logger, m *metrics.Metrics) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		active:      active,
		concurrency: concurrency,
		timeout:     dnsclient.DefaultTimeout,
		logger:      logger,
		metrics:     m,
	}
}

// RunTest resolves the test's nameservers and queries every configured
// record type on every resolved address, returning the accumulated snapshot.
// A failed fan-out query leaves its slot empty; a nameserver hostname that
// never resolves fails the test.
func (e *Engine) RunTest(ctx context.Context, test Test) (*Snapshot, error) {
	addresses, err := e.resolveNameservers(ctx, test)
	if err != nil {
		return nil, err
	}
	e.logger.Debugf("test %s fans out to %v", test.Name, addresses)

	names := append([]string(nil), test.Nameservers...)
	slices.Sort(names)
	snapshot := &Snapshot{
		Nameservers: names,
		Addresses:   addresses,
		Records:     make(map[string]map[string][]string, len(test.QueryTypes)),
	}

	type slot struct {
		qtype   string
		address string
	}
	var slots []slot
	for _, qtype := range test.QueryTypes {
		snapshot.Records[qtype] = make(map[string][]string, len(addresses))
		for _, address := range addresses {
			slots = append(slots, slot{qtype: qtype, address: address})
		}
	}

	// Slots are partitioned up front so the workers never write to the same
	// slice index or map key.
	client := dnsclient.NewClient(test.Protocol, e.timeout)
	results := make([][]string, len(slots))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)
	for i, sl := range slots {
		group.Go(func() error {
			results[i] = e.queryRecords(groupCtx, client, test, sl.qtype, sl.address)
			return nil
		})
	}
	_ = group.Wait()
	for i, sl := range slots {
		snapshot.Records[sl.qtype][sl.address] = results[i]
	}

	return snapshot, nil
}

// resolveNameservers maps the test's nameserver hostnames to the deduplicated,
// sorted fan-out address set.
func (e *Engine) resolveNameservers(ctx context.Context, test Test) ([]string, error) {
	seen := make(map[string]struct{})
	var addresses []string
	for _, hostname := range test.Nameservers {
		ips, err := e.active.LookupA(ctx, hostname)
		if err != nil {
			return nil, fmt.Errorf("test %s: %w", test.Name, err)
		}
		for _, ip := range ips {
			if _, ok := seen[ip]; ok {
				continue
			}
			seen[ip] = struct{}{}
			addresses = append(addresses, ip)
		}
	}
	slices.Sort(addresses)
	return addresses, nil
}

// queryRecords sends one fan-out query and returns the sorted record texts of
// the answer section. Errors degrade the slot to an empty list.
func (e *Engine) queryRecords(ctx context.Context, client *dnsclient.Client, test Test, qtype, address string) []string {
	records := []string{}
	msgType, err := dnsclient.ParseQueryType(qtype)
	if err != nil {
		e.logger.Errorf("test %s: %v", test.Name, err)
		return records
	}

	query := dnsclient.NewQuery(test.QueryName, msgType, e.active.DNSSEC())
	response, rtt, err := client.Exchange(ctx, query, address)
	if err != nil {
		e.logger.LogQueryError(dnsclient.WithPort(address), qtype, dns.Fqdn(test.QueryName), err)
		if e.metrics != nil {
			e.metrics.RecordQueryError(dnsclient.WithPort(address))
		}
		return records
	}

	e.logger.LogQuery(logging.QueryEvent{
		Server:     dnsclient.WithPort(address),
		Protocol:   string(test.Protocol),
		Type:       qtype,
		Name:       dns.Fqdn(test.QueryName),
		Rcode:      dns.RcodeToString[response.Rcode],
		Answers:    len(response.Answer),
		DurationMs: float64(rtt.Microseconds()) / 1000.0,
	})
	if e.metrics != nil {
		e.metrics.RecordQuery(string(test.Protocol), qtype, rtt.Seconds())
	}

	for _, rr := range response.Answer {
		records = append(records, dnsclient.RecordText(rr))
	}
	slices.Sort(records)
	return records
}
