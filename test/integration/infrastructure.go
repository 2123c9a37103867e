// Package integration provides integration testing infrastructure using testcontainers-go.
package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Infrastructure holds the audit fixture: two authoritative nameservers and
// a recursive resolver that knows their addresses.
type Infrastructure struct {
	Network     *testcontainers.DockerNetwork
	NameserverA testcontainers.Container
	NameserverB testcontainers.Container
	Resolver    testcontainers.Container

	// Resolved internal addresses, port included
	NameserverAAddr string
	NameserverBAddr string
	ResolverAddr    string

	nameserverAIP string
	nameserverBIP string
}

// projectRoot returns the project root directory.
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..")
}

// Setup starts two dnsmasq nameservers serving the given records and a
// CoreDNS resolver whose root zone points ns1/ns2.audit.test at their
// container addresses. The resolver answers the root NS health probe.
func Setup(ctx context.Context, recordsA, recordsB []string) (*Infrastructure, error) {
	infra := &Infrastructure{}

	// Create network
	net, err := network.New(ctx, network.WithDriver("bridge"))
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	infra.Network = net

	networkName := net.Name

	// Start nameserver-a
	infra.NameserverA, err = startDNSMasq(ctx, networkName, "nameserver-a", recordsA)
	if err != nil {
		infra.Teardown(ctx)
		return nil, fmt.Errorf("failed to start nameserver-a: %w", err)
	}
	infra.nameserverAIP, err = infra.NameserverA.ContainerIP(ctx)
	if err != nil {
		infra.Teardown(ctx)
		return nil, fmt.Errorf("failed to get nameserver-a IP: %w", err)
	}
	infra.NameserverAAddr = infra.nameserverAIP + ":53"

	// Start nameserver-b
	infra.NameserverB, err = startDNSMasq(ctx, networkName, "nameserver-b", recordsB)
	if err != nil {
		infra.Teardown(ctx)
		return nil, fmt.Errorf("failed to start nameserver-b: %w", err)
	}
	infra.nameserverBIP, err = infra.NameserverB.ContainerIP(ctx)
	if err != nil {
		infra.Teardown(ctx)
		return nil, fmt.Errorf("failed to get nameserver-b IP: %w", err)
	}
	infra.NameserverBAddr = infra.nameserverBIP + ":53"

	// Start the resolver with a zone gluing the nameserver hostnames
	if err := infra.startResolver(ctx); err != nil {
		infra.Teardown(ctx)
		return nil, err
	}

	return infra, nil
}

// startDNSMasq starts a dnsmasq container serving only the given records.
func startDNSMasq(ctx context.Context, networkName, alias string, records []string) (testcontainers.Container, error) {
	cmd := []string{
		"--keep-in-foreground",
		"--log-facility=-",
		"--no-resolv",
		"--no-poll",
	}
	cmd = append(cmd, records...)

	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:    "4km3/dnsmasq:latest",
			Networks: []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {alias},
			},
			Cmd:          cmd,
			ExposedPorts: []string{"53/udp", "53/tcp"},
			WaitingFor:   wait.ForLog("started").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
}

// startResolver starts CoreDNS serving a root zone built from the current
// nameserver addresses. The zone carries the root NS set the probe expects
// plus A records for ns1/ns2.audit.test.
func (i *Infrastructure) startResolver(ctx context.Context) error {
	corefile := `.:53 {
    file /etc/coredns/root.zone
    log
    errors
}
`
	zone := fmt.Sprintf(`. 3600 IN SOA a.root-servers.net. hostmaster.audit.test. 2026082601 7200 3600 1209600 3600
. 3600 IN NS a.root-servers.net.
a.root-servers.net. 3600 IN A 198.41.0.4
ns1.audit.test. 300 IN A %s
ns2.audit.test. 300 IN A %s
`, i.nameserverAIP, i.nameserverBIP)

	resolver, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:    "coredns/coredns:latest",
			Networks: []string{i.Network.Name},
			NetworkAliases: map[string][]string{
				i.Network.Name: {"resolver"},
			},
			Cmd: []string{"-conf", "/etc/coredns/Corefile"},
			Files: []testcontainers.ContainerFile{
				{
					Reader:            stringReader(corefile),
					ContainerFilePath: "/etc/coredns/Corefile",
					FileMode:          0644,
				},
				{
					Reader:            stringReader(zone),
					ContainerFilePath: "/etc/coredns/root.zone",
					FileMode:          0644,
				},
			},
			ExposedPorts: []string{"53/udp", "53/tcp"},
			WaitingFor:   wait.ForLog("CoreDNS").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start resolver: %w", err)
	}
	i.Resolver = resolver

	resolverIP, err := i.Resolver.ContainerIP(ctx)
	if err != nil {
		return fmt.Errorf("failed to get resolver IP: %w", err)
	}
	i.ResolverAddr = resolverIP + ":53"

	return nil
}

// ReplaceNameservers swaps both nameservers for ones serving new records and
// rebuilds the resolver, since the replacement containers get fresh
// addresses the zone has to carry.
func (i *Infrastructure) ReplaceNameservers(ctx context.Context, recordsA, recordsB []string) error {
	for _, c := range []testcontainers.Container{i.Resolver, i.NameserverB, i.NameserverA} {
		if c != nil {
			if err := c.Terminate(ctx); err != nil {
				return fmt.Errorf("failed to terminate container: %w", err)
			}
		}
	}

	networkName := i.Network.Name

	var err error
	i.NameserverA, err = startDNSMasq(ctx, networkName, "nameserver-a", recordsA)
	if err != nil {
		return fmt.Errorf("failed to start new nameserver-a: %w", err)
	}
	i.nameserverAIP, err = i.NameserverA.ContainerIP(ctx)
	if err != nil {
		return fmt.Errorf("failed to get new nameserver-a IP: %w", err)
	}
	i.NameserverAAddr = i.nameserverAIP + ":53"

	i.NameserverB, err = startDNSMasq(ctx, networkName, "nameserver-b", recordsB)
	if err != nil {
		return fmt.Errorf("failed to start new nameserver-b: %w", err)
	}
	i.nameserverBIP, err = i.NameserverB.ContainerIP(ctx)
	if err != nil {
		return fmt.Errorf("failed to get new nameserver-b IP: %w", err)
	}
	i.NameserverBAddr = i.nameserverBIP + ":53"

	return i.startResolver(ctx)
}

// Teardown stops and removes all test containers.
func (i *Infrastructure) Teardown(ctx context.Context) {
	if i.Resolver != nil {
		_ = i.Resolver.Terminate(ctx)
	}
	if i.NameserverB != nil {
		_ = i.NameserverB.Terminate(ctx)
	}
	if i.NameserverA != nil {
		_ = i.NameserverA.Terminate(ctx)
	}
	if i.Network != nil {
		_ = i.Network.Remove(ctx)
	}
}

// AuditPlan renders an audit plan with one query test running against both
// fixture nameservers through the fixture resolver.
func (i *Infrastructure) AuditPlan(testName, queryName string, queryTypes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolvers:\n  - ip: %q\n    type: udp\ndns:\n", i.ResolverAddr)
	fmt.Fprintf(&b, "  - type: query\n    name: %s\n    query_name: %s\n    query_types:\n", testName, queryName)
	for _, qtype := range queryTypes {
		fmt.Fprintf(&b, "      - %s\n", qtype)
	}
	b.WriteString("    nameservers:\n      - ns1.audit.test\n      - ns2.audit.test\n")
	return b.String()
}

// AuditRun is one finished dnsaudit container run.
type AuditRun struct {
	ExitCode int
	Output   string

	container testcontainers.Container
}

// RunAudit builds the dnsaudit image from the project Dockerfile, runs one
// audit with the given plan inside the test network and waits for the
// process to exit. extraFiles maps container paths to contents, letting a
// test seed the baseline from an earlier run.
func (i *Infrastructure) RunAudit(ctx context.Context, plan string, extraFiles map[string][]byte) (*AuditRun, error) {
	files := []testcontainers.ContainerFile{
		{
			Reader:            stringReader(plan),
			ContainerFilePath: "/etc/dnsaudit/plan.yaml",
			FileMode:          0644,
		},
	}
	for path, content := range extraFiles {
		files = append(files, testcontainers.ContainerFile{
			Reader:            bytes.NewReader(content),
			ContainerFilePath: path,
			FileMode:          0644,
		})
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			FromDockerfile: testcontainers.FromDockerfile{
				Context:    projectRoot(),
				Dockerfile: "Dockerfile",
			},
			Networks: []string{i.Network.Name},
			Env: map[string]string{
				"BASELINE_DIR":     "/var/lib/dnsaudit",
				"REPORT_DIR":       "/var/lib/dnsaudit",
				"METRICS_TEXTFILE": "/var/lib/dnsaudit/metrics.prom",
			},
			Files:      files,
			Cmd:        []string{"--verbose", "/etc/dnsaudit/plan.yaml"},
			WaitingFor: wait.ForExit().WithExitTimeout(120 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run dnsaudit: %w", err)
	}

	run := &AuditRun{ExitCode: -1, container: container}

	state, err := container.State(ctx)
	if err != nil {
		return run, fmt.Errorf("failed to inspect dnsaudit container: %w", err)
	}
	run.ExitCode = state.ExitCode

	logs, err := container.Logs(ctx)
	if err != nil {
		return run, fmt.Errorf("failed to get dnsaudit logs: %w", err)
	}
	defer func() { _ = logs.Close() }()

	buf := new(strings.Builder)
	if _, err := io.Copy(buf, logs); err != nil {
		return run, fmt.Errorf("failed to read dnsaudit logs: %w", err)
	}
	run.Output = buf.String()

	return run, nil
}

// File reads a file out of the finished audit container.
func (r *AuditRun) File(ctx context.Context, path string) ([]byte, error) {
	reader, err := r.container.CopyFileFromContainer(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to copy %s from container: %w", path, err)
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}

// Teardown removes the finished audit container.
func (r *AuditRun) Teardown(ctx context.Context) {
	if r.container != nil {
		_ = r.container.Terminate(ctx)
	}
}

// GetResolverHostPort returns the host:port for the resolver (for external access).
func (i *Infrastructure) GetResolverHostPort(ctx context.Context) (string, error) {
	return hostPort(ctx, i.Resolver)
}

// GetNameserverAHostPort returns the host:port of the first nameserver (for external access).
func (i *Infrastructure) GetNameserverAHostPort(ctx context.Context) (string, error) {
	return hostPort(ctx, i.NameserverA)
}

// GetNameserverBHostPort returns the host:port of the second nameserver (for external access).
func (i *Infrastructure) GetNameserverBHostPort(ctx context.Context) (string, error) {
	return hostPort(ctx, i.NameserverB)
}

func hostPort(ctx context.Context, container testcontainers.Container) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "53/udp")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

// stringReader creates an io.Reader from a string.
func stringReader(s string) io.Reader {
	return strings.NewReader(s)
}
