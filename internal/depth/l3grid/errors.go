package l3grid

import (
	"errors"
	"fmt"
)

// Sentinel errors for grid construction and clustering. Match with errors.Is.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrResourceLimitExceeded = errors.New("resource limit exceeded")

	// ErrNoUsablePoints narrows ErrInvalidInput to the empty-cloud case:
	// nothing with confidence > 0, so bounds are undefined.
	ErrNoUsablePoints = errors.New("no point has confidence > 0")
)

// InvalidInputError describes input that cannot produce a grid: no usable
// points, or parameters out of range.
type InvalidInputError struct {
	Reason string
	cause  error
}

func (e *InvalidInputError) Error() string { return "invalid input: " + e.Reason }

func (e *InvalidInputError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.cause}
}

// ResourceLimitError reports a grid that would exceed the configured voxel
// budget. Requested is a float64 because the raw product can overflow int.
type ResourceLimitError struct {
	Requested float64
	Limit     int64
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("resource limit exceeded: grid needs %.0f voxels, limit is %d", e.Requested, e.Limit)
}

func (e *ResourceLimitError) Unwrap() error { return ErrResourceLimitExceeded }

func invalidInput(format string, args ...interface{}) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}
