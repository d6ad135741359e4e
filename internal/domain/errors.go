package domain

import "errors"

var (
	// ErrValidation marks bad caller input such as malformed window parameters.
	ErrValidation = errors.New("validation error")
	// ErrPersistence marks a repository read or write failure.
	ErrPersistence = errors.New("persistence error")
)

// Normalized transport failure reasons carried in ProbeResult.Error.
const (
	ReasonConnectionRefused = "connection-refused"
	ReasonTimeout           = "timeout"
	ReasonDNSFailure        = "dns-failure"
	ReasonUnknown           = "unknown"
)
