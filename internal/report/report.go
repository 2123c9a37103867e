// Package report emits mismatch and drift reports to operator-facing
// destinations.
package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/steigr/dnsaudit/internal/logging"
	"github.com/steigr/dnsaudit/internal/metrics"
)

const timestampLayout = "20060102-150405"

// Sink receives free-text reports.
type Sink interface {
	// Store persists one report and returns its identifier.
	Store(details string) (string, error)
}

// FileSink writes each report to a timestamped file in a directory and
// echoes it to an output stream. Filenames carry a zero-padded sequence
// suffix when several reports land in the same second.
type FileSink struct {
	dir     string
	out     io.Writer
	logger  *logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewFileSink creates a FileSink writing to dir, the working directory when
// empty. Reports are echoed to stdout. A nil logger falls back to the
// default logger.
func NewFileSink(dir string, logger *logging.Logger, m *metrics.Metrics) *FileSink {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FileSink{
		dir:     dir,
		out:     os.Stdout,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Store writes the report to a fresh file and returns its path.
func (s *FileSink) Store(details string) (string, error) {
	stamp := s.now().Format(timestampLayout)
	fname := filepath.Join(s.dir, fmt.Sprintf("dnsaudit-report-%s.txt", stamp))
	for seq := 0; ; seq++ {
		if _, err := os.Stat(fname); errors.Is(err, fs.ErrNotExist) {
			break
		}
		fname = filepath.Join(s.dir, fmt.Sprintf("dnsaudit-report-%s-%03d.txt", stamp, seq))
	}

	if err := os.WriteFile(fname, []byte(details), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	s.logger.Infof("report saved to %s", fname)
	fmt.Fprint(s.out, details)
	if s.metrics != nil {
		s.metrics.RecordReport()
	}
	return fname, nil
}

// Discard drops reports. It serves tests and callers that only care about
// the run's exit state.
type Discard struct{}

// Store implements Sink.
func (Discard) Store(string) (string, error) {
	return "", nil
}
