//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// DriftAuditSuite audits a zone whose answers change between runs while the
// nameservers stay in agreement with each other.
type DriftAuditSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	infra  *Infrastructure
}

func (s *DriftAuditSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Minute)

	records := []string{"--address=/example.audit.test/192.0.2.10"}

	var err error
	s.infra, err = Setup(s.ctx, records, records)
	require.NoError(s.T(), err, "Failed to setup test infrastructure")
}

func (s *DriftAuditSuite) TearDownSuite() {
	if s.infra != nil {
		s.infra.Teardown(s.ctx)
	}
	s.cancel()
}

// TestAuditDetectsBaselineDrift establishes a baseline, moves the zone to a
// new record set on both nameservers and runs again. Expected: no mismatch
// (the nameservers still agree), a drift report against the previous
// baseline, the old baseline archived and the new snapshot stored.
func (s *DriftAuditSuite) TestAuditDetectsBaselineDrift() {
	plan := s.infra.AuditPlan("zone-audit", "example.audit.test", []string{"A"})

	first, err := s.infra.RunAudit(s.ctx, plan, nil)
	require.NoError(s.T(), err)
	defer first.Teardown(s.ctx)
	require.Equal(s.T(), 0, first.ExitCode, "audit output:\n%s", first.Output)

	baseline, err := first.File(s.ctx, "/var/lib/dnsaudit/baseline-zone-audit.json")
	require.NoError(s.T(), err)

	// the zone moves to a new address on both nameservers
	records := []string{"--address=/example.audit.test/192.0.2.20"}
	require.NoError(s.T(), s.infra.ReplaceNameservers(s.ctx, records, records))

	// the resolver was rebuilt, so render the plan again
	plan = s.infra.AuditPlan("zone-audit", "example.audit.test", []string{"A"})

	second, err := s.infra.RunAudit(s.ctx, plan, map[string][]byte{
		"/var/lib/dnsaudit/baseline-zone-audit.json": baseline,
	})
	require.NoError(s.T(), err)
	defer second.Teardown(s.ctx)

	assert.Equal(s.T(), 0, second.ExitCode, "audit output:\n%s", second.Output)
	assert.NotContains(s.T(), second.Output, "Inconsistent nameservers results")
	assert.Contains(s.T(), second.Output, "Mismatch for example.audit.test with previous results")
	assert.Contains(s.T(), second.Output, "drifted, archived as")

	updated, err := second.File(s.ctx, "/var/lib/dnsaudit/baseline-zone-audit.json")
	require.NoError(s.T(), err)
	assert.Contains(s.T(), string(updated), "A 192.0.2.20")
	assert.NotContains(s.T(), string(updated), "A 192.0.2.10")
}

func TestDriftAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(DriftAuditSuite))
}
