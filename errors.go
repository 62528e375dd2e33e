package kforest

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kforest/blobstore"
	"github.com/hupe1980/kforest/codebook"
	"github.com/hupe1980/kforest/forest"
	"github.com/hupe1980/kforest/kmeans"
	"github.com/hupe1980/kforest/tree"
	"github.com/hupe1980/kforest/vector"
)

var (
	// ErrEmptyInput is returned when there are no points to work on.
	ErrEmptyInput = vector.ErrEmptyInput

	// ErrTooFewPoints is returned when more clusters than points are requested.
	ErrTooFewPoints = kmeans.ErrTooFewPoints

	// ErrInvalidConfiguration is returned for out-of-range parameters.
	ErrInvalidConfiguration = tree.ErrInvalidConfiguration

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = forest.ErrInvalidK

	// ErrNotFound is returned when a codebook does not exist in the store.
	ErrNotFound = blobstore.ErrNotFound

	// ErrCorrupt is returned when a stored codebook fails its checks.
	ErrCorrupt = codebook.ErrCorrupt
)

// ErrDimensionMismatch indicates a point/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidParameter names the offending parameter of an
// ErrInvalidConfiguration.
type ErrInvalidParameter struct {
	Field  string
	Value  any
	Reason string
	cause  error
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ErrInvalidParameter) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *vector.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var ce *tree.ConfigError
	if errors.As(err, &ce) {
		return &ErrInvalidParameter{Field: ce.Field, Value: ce.Value, Reason: ce.Reason, cause: err}
	}

	return err
}
