package cpdtrack

import (
	"errors"
	"fmt"
)

// Sentinel errors for the §7 error taxonomy. Callers should use
// errors.Is against these, since Step wraps them with frame-specific
// detail via fmt.Errorf("...: %w", ...).
var (
	// ErrShapeMismatch is returned before any work is done when rgb/depth/mask
	// dimensions disagree, or the projection matrix is malformed.
	ErrShapeMismatch = errors.New("cpdtrack: input shape violation")

	// ErrInfeasible is a recoverable error from the post-optimizer: the
	// supplied fixed points are inconsistent with the edge-length caps.
	// Callers may retry Step without fixed points.
	ErrInfeasible = errors.New("cpdtrack: post-optimizer infeasible")
)

func shapeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrShapeMismatch, fmt.Sprintf(format, args...))
}

func infeasibleErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInfeasible, fmt.Sprintf(format, args...))
}
