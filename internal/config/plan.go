package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/steigr/dnsaudit/internal/dnsclient"
)

// TestTypeQuery marks audit plan entries executed as consistency queries.
// Entries with other types are skipped.
const TestTypeQuery = "query"

// Plan is the parsed YAML audit plan: the candidate resolvers and the DNS
// tests to run against them.
type Plan struct {
	// Resolvers are the candidate recursive resolvers, probed in order.
	Resolvers []ResolverSpec `yaml:"resolvers"`
	// Tests are the audit tests keyed under "dns" in the plan file.
	Tests []TestSpec `yaml:"dns"`
}

// ResolverSpec configures one candidate recursive resolver.
type ResolverSpec struct {
	// IP is the resolver address, with an optional port (defaults to 53).
	IP string `yaml:"ip"`
	// Type is the transport used to reach the resolver: "udp" or "tcp".
	Type string `yaml:"type"`
	// DNSSEC asks the resolver for DNSSEC records on every lookup.
	DNSSEC bool `yaml:"dnssec"`
}

// TestSpec configures one audit test.
type TestSpec struct {
	// Type selects the test kind. Only "query" is executed.
	Type string `yaml:"type"`
	// Name uniquely identifies the test; baselines are keyed by it.
	Name string `yaml:"name"`
	// QueryName is the domain queried on every nameserver.
	QueryName string `yaml:"query_name"`
	// QueryTypes are the record types queried, in order.
	QueryTypes []string `yaml:"query_types"`
	// Nameservers are the nameserver hostnames whose answers are compared.
	Nameservers []string `yaml:"nameservers"`
	// QueryProtocol is the transport for fan-out queries, "udp" by default.
	QueryProtocol string `yaml:"query_protocol"`
}

// LoadPlan reads and validates the YAML audit plan at path.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audit plan: %w", err)
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse audit plan %s: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audit plan %s: %w", path, err)
	}
	return &plan, nil
}

// Validate checks the plan for structural problems so a run never starts on
// a malformed specification.
func (p *Plan) Validate() error {
	if len(p.Resolvers) == 0 {
		return fmt.Errorf("no resolvers configured")
	}
	for i, r := range p.Resolvers {
		if r.IP == "" {
			return fmt.Errorf("resolver %d: ip is required", i)
		}
		if _, err := dnsclient.ParseProtocol(r.Type); err != nil {
			return fmt.Errorf("resolver %s: %w", r.IP, err)
		}
	}

	seen := make(map[string]bool, len(p.Tests))
	for i, t := range p.Tests {
		if t.Type != TestTypeQuery {
			continue
		}
		if t.Name == "" {
			return fmt.Errorf("test %d: name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("test %q: duplicate name", t.Name)
		}
		seen[t.Name] = true
		if t.QueryName == "" {
			return fmt.Errorf("test %q: query_name is required", t.Name)
		}
		if len(t.QueryTypes) == 0 {
			return fmt.Errorf("test %q: at least one query type is required", t.Name)
		}
		for _, qt := range t.QueryTypes {
			if _, err := dnsclient.ParseQueryType(qt); err != nil {
				return fmt.Errorf("test %q: %w", t.Name, err)
			}
		}
		if len(t.Nameservers) == 0 {
			return fmt.Errorf("test %q: at least one nameserver is required", t.Name)
		}
		if _, err := dnsclient.ParseProtocol(t.QueryProtocol); err != nil {
			return fmt.Errorf("test %q: %w", t.Name, err)
		}
	}
	return nil
}

// QueryTests returns the plan entries that are executable query tests.
func (p *Plan) QueryTests() []TestSpec {
	tests := make([]TestSpec, 0, len(p.Tests))
	for _, t := range p.Tests {
		if t.Type == TestTypeQuery {
			tests = append(tests, t)
		}
	}
	return tests
}
