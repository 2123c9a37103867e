package audit

import "slices"

// Snapshot is the complete answer set of one test run: every record obtained
// for every queried type on every fan-out address. Name, address and record
// lists are sorted, so two snapshots of the same zone state compare equal
// regardless of arrival order.
type Snapshot struct {
	// Nameservers are the audited nameserver hostnames.
	Nameservers []string `json:"nameservers"`
	// Addresses is the fan-out address set, deduplicated and sorted. The
	// first entry is the reference for consistency checks.
	Addresses []string `json:"nameserver_addresses"`
	// Records maps record type to address to the record texts returned
	// there. A slot is an empty list when its query failed or returned
	// nothing.
	Records map[string]map[string][]string `json:"records"`
}

// Equal reports whether both snapshots hold the same answer set.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if !slices.Equal(s.Nameservers, other.Nameservers) || !slices.Equal(s.Addresses, other.Addresses) {
		return false
	}
	if len(s.Records) != len(other.Records) {
		return false
	}
	for qtype, byAddress := range s.Records {
		otherByAddress, ok := other.Records[qtype]
		if !ok || len(byAddress) != len(otherByAddress) {
			return false
		}
		for address, records := range byAddress {
			otherRecords, ok := otherByAddress[address]
			if !ok || !slices.Equal(records, otherRecords) {
				return false
			}
		}
	}
	return true
}

// Types returns the record types present in the snapshot, sorted.
func (s *Snapshot) Types() []string {
	types := make([]string, 0, len(s.Records))
	for qtype := range s.Records {
		types = append(types, qtype)
	}
	slices.Sort(types)
	return types
}
