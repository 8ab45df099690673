package detect

import "errors"

// Error taxonomy of the engine. Insufficient data is not represented here:
// detectors return empty results for it.
var (
	// ErrInvalidInput marks negative, NaN or out-of-range caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled is returned when a pass is cancelled; partial results are
	// discarded, never published.
	ErrCancelled = errors.New("detection pass cancelled")

	// ErrInvariant marks a bug-class fault (e.g. confidence outside [0,100]
	// after clamping). The pass aborts and surfaces an opaque identifier.
	ErrInvariant = errors.New("internal invariant violation")
)
