package audit

import (
	"fmt"
	"slices"
	"strings"
)

// Mismatch describes one record type on one address diverging from the
// reference address.
type Mismatch struct {
	// Query is the queried domain.
	Query string
	// Type is the record type that diverged.
	Type string
	// Address is the nameserver address that disagreed.
	Address string
	// Reference is the address whose answers serve as expectation.
	Reference string
	// Expected are the reference's records, sorted.
	Expected []string
	// Got are the divergent address's records, sorted.
	Got []string
}

// Report renders the mismatch as an operator-facing report.
func (m *Mismatch) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Inconsistent nameservers results for %s %s on %s\n", m.Query, m.Type, m.Address)
	fmt.Fprintf(&b, "Reference nameserver: %s\n", m.Reference)
	b.WriteString("Expected:\n")
	for _, entry := range m.Expected {
		b.WriteString(entry)
		b.WriteByte('\n')
	}
	b.WriteString("Got:\n")
	for _, entry := range m.Got {
		b.WriteString(entry)
		b.WriteByte('\n')
	}
	return b.String()
}

// Check compares, per record type, every address's answers against the
// reference address, the lexicographically first of the fan-out set. Each
// divergent (type, address) pair yields one Mismatch. A type with zero
// answers across all addresses is noted and skipped.
func (e *Engine) Check(test Test, snapshot *Snapshot) []Mismatch {
	if len(snapshot.Addresses) == 0 {
		return nil
	}
	reference := snapshot.Addresses[0]

	var mismatches []Mismatch
	for _, qtype := range snapshot.Types() {
		byAddress := snapshot.Records[qtype]
		if answerless(byAddress) {
			e.logger.Infof("no answers for %s %s on any nameserver", test.QueryName, qtype)
			continue
		}
		expected := byAddress[reference]
		for _, address := range snapshot.Addresses[1:] {
			got := byAddress[address]
			if slices.Equal(expected, got) {
				continue
			}
			mismatches = append(mismatches, Mismatch{
				Query:     test.QueryName,
				Type:      qtype,
				Address:   address,
				Reference: reference,
				Expected:  expected,
				Got:       got,
			})
			if e.metrics != nil {
				e.metrics.RecordMismatch(test.Name, qtype)
			}
		}
	}
	return mismatches
}

func answerless(byAddress map[string][]string) bool {
	for _, records := range byAddress {
		if len(records) > 0 {
			return false
		}
	}
	return true
}
