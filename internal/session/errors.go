package session

import "errors"

var (
	// ErrNoLocation is returned when a place is requested before any sample arrived.
	ErrNoLocation = errors.New("no location available yet")

	// ErrInvalidLabel is returned for an empty or blank place label.
	ErrInvalidLabel = errors.New("place label must not be empty")

	// ErrMalformedSample marks a sample that was rejected and dropped.
	// It is logged, never returned to callers.
	ErrMalformedSample = errors.New("malformed sample")
)
