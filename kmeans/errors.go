package kmeans

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kforest/tree"
	"github.com/hupe1980/kforest/vector"
)

var (
	// ErrEmptyInput is returned when there are no points to cluster.
	ErrEmptyInput = vector.ErrEmptyInput

	// ErrInvalidConfiguration is returned when Config fails validation.
	ErrInvalidConfiguration = tree.ErrInvalidConfiguration

	// ErrTooFewPoints is returned when more clusters than points are requested.
	ErrTooFewPoints = errors.New("too few points")
)

// TooFewPointsError reports how many clusters were requested from how many
// points.
type TooFewPointsError struct {
	Clusters int
	Points   int
}

func (e *TooFewPointsError) Error() string {
	return fmt.Sprintf("too few points: %d clusters requested from %d points", e.Clusters, e.Points)
}

func (e *TooFewPointsError) Unwrap() error { return ErrTooFewPoints }
