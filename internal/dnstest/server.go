// Package dnstest runs scripted DNS servers on loopback for tests.
package dnstest

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// Response defines how the server answers one DNS question.
type Response struct {
	// Msg is sent as the response if non-nil. The Question and Id are set
	// from the incoming request before sending.
	Msg *dns.Msg
	// Rcode sets the reply code of a generated message when Msg is nil.
	// Defaults to RcodeSuccess.
	Rcode int
	// Drop causes the server to ignore the request, simulating a timeout.
	Drop bool
	// Delay adds a delay before the response is processed.
	Delay time.Duration
}

// Server simulates a DNS server for use in tests. Questions with no scripted
// response are answered with NXDOMAIN.
type Server struct {
	// Addr is the address the server is listening on.
	Addr string

	mu        sync.RWMutex
	responses map[string]*Response
	queries   map[string]int
	udp       *dns.Server
	tcp       *dns.Server
}

// NewServer starts a DNS server on addr serving the provided responses over
// both UDP and TCP on the same port. A port of "0" picks a free one.
func NewServer(addr string, responses map[string]*Response) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	tcpListener, err := net.Listen("tcp", udpConn.LocalAddr().String())
	if err != nil {
		_ = udpConn.Close()
		return nil, err
	}

	if responses == nil {
		responses = make(map[string]*Response)
	}
	s := &Server{
		Addr:      udpConn.LocalAddr().String(),
		responses: responses,
		queries:   make(map[string]int),
	}
	handler := dns.HandlerFunc(s.handle)
	s.udp = &dns.Server{PacketConn: udpConn, Handler: handler}
	s.tcp = &dns.Server{Listener: tcpListener, Handler: handler}

	go s.udp.ActivateAndServe()
	go s.tcp.ActivateAndServe()

	return s, nil
}

// SetResponse replaces the scripted response for a question, letting tests
// change answers between runs.
func (s *Server) SetResponse(name string, qtype uint16, resp *Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[Key(name, qtype)] = resp
}

// QueryCount reports how many requests arrived for a question, dropped
// requests included.
func (s *Server) QueryCount(name string, qtype uint16) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries[Key(name, qtype)]
}

// Close shuts down the server.
func (s *Server) Close() {
	if s.udp != nil {
		_ = s.udp.Shutdown()
	}
	if s.tcp != nil {
		_ = s.tcp.Shutdown()
	}
}

func (s *Server) handle(w dns.ResponseWriter, req *dns.Msg) {
	if len(req.Question) == 0 {
		_ = w.Close()
		return
	}
	q := req.Question[0]
	key := Key(q.Name, q.Qtype)

	s.mu.Lock()
	s.queries[key]++
	resp := s.responses[key]
	s.mu.Unlock()

	if resp == nil {
		m := new(dns.Msg)
		m.SetRcode(req, dns.RcodeNameError)
		_ = w.WriteMsg(m)
		return
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	if resp.Drop {
		return
	}
	var m *dns.Msg
	if resp.Msg != nil {
		m = resp.Msg.Copy()
		// SetReply clears the sections, so carry them over.
		ans, ns, extra := m.Answer, m.Ns, m.Extra
		m.SetReply(req)
		m.Answer, m.Ns, m.Extra = ans, ns, extra
	} else {
		m = new(dns.Msg)
		m.SetReply(req)
	}
	if resp.Rcode != 0 {
		m.Rcode = resp.Rcode
	}
	_ = w.WriteMsg(m)
}

// Key returns the map key for a question name and type.
func Key(name string, qtype uint16) string {
	return strings.ToLower(dns.Fqdn(name)) + "/" + strconv.FormatUint(uint64(qtype), 10)
}

// Answer builds a Response whose answer section holds the given records in
// zone file syntax. It panics on a malformed record, as tests supply
// constants.
func Answer(records ...string) *Response {
	m := new(dns.Msg)
	for _, r := range records {
		m.Answer = append(m.Answer, MustRR(r))
	}
	return &Response{Msg: m}
}

// MustRR parses a record in zone file syntax and panics on failure.
func MustRR(s string) dns.RR {
	rr, err := dns.NewRR(s)
	if err != nil {
		panic(fmt.Sprintf("dnstest: bad record %q: %v", s, err))
	}
	return rr
}
