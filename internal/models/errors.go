package models

import "errors"

// Shared error taxonomy. Recoverable provider failures are classified in
// the route package; these sentinels cover the inputs and the protocol.
var (
	// ErrInvalidCoordinate rejects out-of-range latitude or longitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrPreconditionFailed signals a quoting call without both trip
	// endpoints set. The trip state is left untouched.
	ErrPreconditionFailed = errors.New("trip is missing origin or destination")

	// ErrPricingInconsistency signals that a price could not be computed
	// from the measured distance/duration (negative or non-finite input).
	// A quote must never carry a negative or NaN price.
	ErrPricingInconsistency = errors.New("pricing inconsistency")
)
