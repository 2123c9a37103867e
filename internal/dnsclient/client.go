// Package dnsclient issues DNS queries over UDP or TCP with a fixed timeout.
package dnsclient

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Protocol selects the transport for DNS exchanges.
type Protocol string

const (
	// ProtocolUDP exchanges messages over UDP.
	ProtocolUDP Protocol = "udp"
	// ProtocolTCP exchanges messages over TCP.
	ProtocolTCP Protocol = "tcp"
)

// ParseProtocol maps a textual protocol name to a Protocol. An empty string
// selects UDP.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ProtocolUDP):
		return ProtocolUDP, nil
	case string(ProtocolTCP):
		return ProtocolTCP, nil
	}
	return "", fmt.Errorf("unknown query protocol %q", s)
}

// DefaultTimeout bounds every DNS exchange.
const DefaultTimeout = 10 * time.Second

// edns0BufferSize is the UDP buffer advertised when DNSSEC records are
// requested.
const edns0BufferSize = 4096

// Client exchanges DNS messages with individual servers.
type Client struct {
	client   *dns.Client
	protocol Protocol
}

// NewClient creates a client for the given transport. A zero timeout selects
// DefaultTimeout.
func NewClient(protocol Protocol, timeout time.Duration) *Client {
	if protocol == "" {
		protocol = ProtocolUDP
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client:   &dns.Client{Net: string(protocol), Timeout: timeout},
		protocol: protocol,
	}
}

// Protocol returns the transport the client exchanges over.
func (c *Client) Protocol() Protocol {
	return c.protocol
}

// Exchange sends msg to server and returns the response and round-trip time.
// Transport failures and unusable responses come back as *ProtocolError.
// Responses with a non-success rcode are returned as-is; interpreting them is
// the caller's concern.
func (c *Client) Exchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, time.Duration, error) {
	addr := WithPort(server)
	response, rtt, err := c.client.ExchangeContext(ctx, msg, addr)
	if err != nil {
		return nil, rtt, &ProtocolError{Server: addr, Err: err}
	}
	if response.Truncated {
		return nil, rtt, &ProtocolError{Server: addr, Err: errTruncated}
	}
	return response, rtt, nil
}

// NewQuery builds a query for name and qtype. With dnssec set the message
// advertises EDNS0 and asks for DNSSEC records.
func NewQuery(name string, qtype uint16, dnssec bool) *dns.Msg {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	if dnssec {
		msg.SetEdns0(edns0BufferSize, true)
	}
	return msg
}

// ParseQueryType maps a textual record type such as "A" or "TXT" to its wire
// value.
func ParseQueryType(s string) (uint16, error) {
	qtype, ok := dns.StringToType[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown query type %q", s)
	}
	return qtype, nil
}

// RecordText renders a record as "<TYPE> <rdata>". The owner name, class and
// TTL are left out so answers compare equal across servers that decrement
// TTLs.
func RecordText(rr dns.RR) string {
	header := rr.Header()
	rdata := strings.TrimPrefix(rr.String(), header.String())
	return dns.Type(header.Rrtype).String() + " " + rdata
}

// EdnsOptions returns the textual EDNS0 options carried by msg, if any.
func EdnsOptions(msg *dns.Msg) []string {
	if msg == nil {
		return nil
	}
	opt := msg.IsEdns0()
	if opt == nil {
		return nil
	}
	options := make([]string, 0, len(opt.Option))
	for _, o := range opt.Option {
		options = append(options, o.String())
	}
	return options
}

// WithPort returns addr with the default DNS port appended when no port is
// present.
func WithPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, "53")
}
