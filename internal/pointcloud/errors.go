package pointcloud

import "errors"

var (
	// ErrFeatureNotFound reports a reference to a feature the cloud lacks.
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrLengthMismatch reports feature values whose length differs from the
	// cloud's point count.
	ErrLengthMismatch = errors.New("feature length does not match point count")

	// ErrNoPoints reports an operation that needs an existing point count.
	ErrNoPoints = errors.New("cloud has no points")

	// ErrIndexOutOfRange reports a point index outside [0, point count).
	// Operations returning it still complete for the valid subset.
	ErrIndexOutOfRange = errors.New("point index out of range")

	// ErrSelfAttach reports an indexed child named after its own parent.
	ErrSelfAttach = errors.New("cloud cannot be attached to itself")
)
