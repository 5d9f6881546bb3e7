package domain

import "errors"

// Domain errors represent error conditions in the radbatch domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("radbatch: invalid configuration")

	// ErrInvalidCaseIndex is returned when a case index cannot be formatted
	// as a 5-digit identifier.
	ErrInvalidCaseIndex = errors.New("radbatch: invalid case index")

	// ErrEmptyROI is returned when the mask selects no voxels for the configured label.
	ErrEmptyROI = errors.New("radbatch: mask contains no voxels with the requested label")

	// ErrGeometryMismatch is returned when image and mask do not share a grid.
	ErrGeometryMismatch = errors.New("radbatch: image and mask geometry mismatch")

	// ErrUnsupportedFormat is returned when a volume file extension or pixel type is not handled.
	ErrUnsupportedFormat = errors.New("radbatch: unsupported image format")
)
