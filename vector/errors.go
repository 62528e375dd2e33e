package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when an operation needs at least one point.
	ErrEmptyInput = errors.New("empty input")

	// ErrDimension is the sentinel matched by every *ErrDimensionMismatch.
	ErrDimension = errors.New("dimension mismatch")
)

// ErrDimensionMismatch indicates that vectors of differing length were
// compared or combined.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrDimension.
func (e *ErrDimensionMismatch) Is(target error) bool { return target == ErrDimension }

func mismatch(expected, actual int) error {
	return &ErrDimensionMismatch{Expected: expected, Actual: actual}
}
