package resolver

import "errors"

var (
	// ErrNoWorkingResolver is returned by Select when no candidate resolver
	// answers the probe query. Nothing can be audited without one, so the
	// run fails as a whole.
	ErrNoWorkingResolver = errors.New("no working resolver found")

	// ErrNoRecordFound is returned by LookupA when the lookup completed but
	// yielded no A records. It fails the test that needed the address, not
	// the run.
	ErrNoRecordFound = errors.New("no record found")
)
