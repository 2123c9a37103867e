// Package integration provides integration testing for dnsaudit.
package integration

import (
	"net"
	"time"

	"github.com/miekg/dns"
)

// queryDNS sends one recursive question to server and returns the response.
func queryDNS(server, name string, qtype uint16) (*dns.Msg, error) {
	client := &dns.Client{Net: "udp", Timeout: 5 * time.Second}
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true
	response, _, err := client.Exchange(msg, server)
	return response, err
}

// hasARecord reports whether the answer section holds an A record for ip.
func hasARecord(msg *dns.Msg, ip string) bool {
	want := net.ParseIP(ip)
	for _, rr := range msg.Answer {
		if a, ok := rr.(*dns.A); ok && a.A.Equal(want) {
			return true
		}
	}
	return false
}

// hasNSTarget reports whether the answer section holds an NS record naming
// target.
func hasNSTarget(msg *dns.Msg, target string) bool {
	for _, rr := range msg.Answer {
		if ns, ok := rr.(*dns.NS); ok && ns.Ns == dns.Fqdn(target) {
			return true
		}
	}
	return false
}

// firstARecord returns the first A record address in the answer section, or
// the empty string.
func firstARecord(msg *dns.Msg) string {
	for _, rr := range msg.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String()
		}
	}
	return ""
}
