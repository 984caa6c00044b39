package types

import "errors"

// Error kinds. Every failure surfaced by the tool wraps exactly one of these
// sentinels so callers can classify errors without matching message strings.
// All kinds are terminal for the current invocation; the operator re-runs
// after fixing the underlying cause.
var (
	// ErrValidation marks bad input shape or range, detected before any
	// query executes.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing checkpoint, map, run, or statistic row.
	ErrNotFound = errors.New("not found")

	// ErrConsistency marks checkpoint pairs spanning different maps and
	// post-write verification mismatches.
	ErrConsistency = errors.New("consistency error")

	// ErrConnectivity marks an unreachable database or SSH tunnel.
	ErrConnectivity = errors.New("connectivity error")
)
