package domain

import "errors"

var (
	// ErrInvalidBoundingBox marks a degenerate or misordered bounding box.
	ErrInvalidBoundingBox = errors.New("invalid bounding box")

	// ErrInvalidArgument marks an out-of-range numeric argument such as a
	// non-positive pixel dimension or step count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a missing region or render job.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks a dependency outage, such as the work queue
	// rejecting a job.
	ErrUnavailable = errors.New("unavailable")
)
