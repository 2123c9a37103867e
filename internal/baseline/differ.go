package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/steigr/dnsaudit/internal/audit"
	"github.com/steigr/dnsaudit/internal/logging"
	"github.com/steigr/dnsaudit/internal/metrics"
)

// Differ compares a run's snapshot with the stored baseline and rotates the
// baseline on drift.
type Differ struct {
	store   *Store
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewDiffer creates a Differ over the given store. A nil logger falls back
// to the default logger.
func NewDiffer(store *Store, logger *logging.Logger, m *metrics.Metrics) *Differ {
	if logger == nil {
		logger = logging.Default()
	}
	return &Differ{
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// Drift describes a snapshot diverging from the stored baseline.
type Drift struct {
	// Query is the queried domain of the drifted test.
	Query string
	// Previous is the baseline snapshot that was replaced.
	Previous *audit.Snapshot
	// Current is the snapshot that replaced it.
	Current *audit.Snapshot
}

// Report renders the drift as an operator-facing report.
func (d *Drift) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mismatch for %s with previous results\n", d.Query)
	b.WriteString("Expected:\n")
	b.WriteString(snapshotJSON(d.Previous))
	b.WriteByte('\n')
	b.WriteString("Got:\n")
	b.WriteString(snapshotJSON(d.Current))
	b.WriteByte('\n')
	return b.String()
}

// DiffAndUpdate compares the snapshot against the stored baseline of the
// test. The first run stores the snapshot and reports no drift. On drift the
// old baseline is archived, the snapshot becomes the new baseline, and the
// drift is returned. A nil Drift means the nameserver answers are stable.
func (d *Differ) DiffAndUpdate(test audit.Test, snapshot *audit.Snapshot) (*Drift, error) {
	previous, err := d.store.Load(test.Name)
	if errors.Is(err, fs.ErrNotExist) {
		if err := d.store.Save(test.Name, snapshot); err != nil {
			return nil, err
		}
		d.logger.Infof("stored initial baseline for %s", test.Name)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if previous.Equal(snapshot) {
		d.logger.Debugf("previous results match for %s", test.QueryName)
		return nil, nil
	}

	archived, err := d.store.Rotate(test.Name)
	if err != nil {
		return nil, err
	}
	if err := d.store.Save(test.Name, snapshot); err != nil {
		return nil, err
	}
	d.logger.Infof("baseline for %s drifted, archived as %s", test.Name, filepath.Base(archived))
	if d.metrics != nil {
		d.metrics.RecordDrift(test.Name)
	}
	return &Drift{Query: test.QueryName, Previous: previous, Current: snapshot}, nil
}

func snapshotJSON(s *audit.Snapshot) string {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf("%+v", s)
	}
	return string(data)
}
