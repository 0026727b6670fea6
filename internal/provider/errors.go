// Package provider defines the failure taxonomy shared by every upstream adapter.
//
// Adapters never panic and never hand raw upstream payloads to callers. Each
// public fetch returns either a populated result or an error that wraps exactly
// one of the sentinels below, so callers can tell bad input apart from an
// unreachable upstream or an upstream that simply had nothing to offer.
package provider

import (
	"errors"
	"fmt"
)

// Failure sentinels. Match with errors.Is.
var (
	// ErrInvalidInput is returned before any network call when coordinates are
	// out of range or a required key is missing.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransport covers timeouts, connection errors, open circuits and
	// non-2xx statuses.
	ErrTransport = errors.New("upstream unavailable")

	// ErrMalformedResponse is returned when a 2xx body cannot be decoded into
	// the expected shape.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrEmptyResult means the upstream answered correctly but nothing usable
	// survived normalization.
	ErrEmptyResult = errors.New("no results")
)

// FailureKind classifies an error returned by an adapter.
type FailureKind string

const (
	KindNone              FailureKind = ""
	KindInvalidInput      FailureKind = "INVALID_INPUT"
	KindTransport         FailureKind = "TRANSPORT_FAILURE"
	KindMalformedResponse FailureKind = "MALFORMED_RESPONSE"
	KindEmptyResult       FailureKind = "EMPTY_RESULT"
	KindUnknown           FailureKind = "UNKNOWN"
)

// Classify maps an error onto the failure taxonomy.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrEmptyResult):
		return KindEmptyResult
	default:
		return KindUnknown
	}
}

// IsFailure reports whether err is a real failure rather than an empty result.
// Empty results are expected outcomes and are not logged as errors.
func IsFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrEmptyResult)
}

// Transportf wraps a cause as a transport failure.
func Transportf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransport, fmt.Sprintf(format, args...))
}

// Malformedf wraps a cause as a malformed response.
func Malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// InvalidInputf wraps a cause as invalid input.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
