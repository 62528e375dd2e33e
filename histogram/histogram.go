// Package histogram turns clustered features into bag-of-words histograms
// and ranks them by tf-idf weighted cosine similarity.
//
// Each centroid of a clustering is a visual word. A document (an image, a
// record) contributes one feature per occurrence; its histogram counts how
// many features fall closest to each word.
package histogram

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/kforest/vector"
)

var (
	// ErrWordOutOfRange is returned when an Assigner yields an index outside
	// the vocabulary.
	ErrWordOutOfRange = errors.New("word out of range")

	// ErrInvalidN is returned when a query asks for fewer than one result.
	ErrInvalidN = errors.New("n must be positive")
)

// Histogram holds one bin per word.
type Histogram []float32

// Total returns the sum of all bins.
func (h Histogram) Total() float32 {
	var sum float64
	for _, v := range h {
		sum += float64(v)
	}
	return float32(sum)
}

// Assigner maps a feature to the index of its word. The method value
// (*forest.Index).ApproximateNearestNeighbor is an Assigner.
type Assigner func(feature vector.Point) (int, error)

// Exact returns an Assigner that scans all centroids.
func Exact(centroids []vector.Point) Assigner {
	return func(feature vector.Point) (int, error) {
		return vector.NearestNeighbor(feature, centroids)
	}
}

// Build counts the words of a document's features.
func Build(features []vector.Point, numWords int, assign Assigner) (Histogram, error) {
	if numWords <= 0 {
		return nil, fmt.Errorf("histogram: %d words: %w", numWords, vector.ErrEmptyInput)
	}

	h := make(Histogram, numWords)
	for i, f := range features {
		w, err := assign(f)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if w < 0 || w >= numWords {
			return nil, fmt.Errorf("feature %d: word %d of %d: %w", i, w, numWords, ErrWordOutOfRange)
		}
		h[w]++
	}
	return h, nil
}

// Reweight returns count/total*weight per bin. A histogram without counts
// stays all zero.
func Reweight(h Histogram, weights []float32) (Histogram, error) {
	if len(h) != len(weights) {
		return nil, &vector.ErrDimensionMismatch{Expected: len(h), Actual: len(weights)}
	}

	out := make(Histogram, len(h))
	total := h.Total()
	if total == 0 {
		return out, nil
	}

	for i, v := range h {
		out[i] = v / total * weights[i]
	}
	return out, nil
}

// Similarities returns the cosine similarity of query to each histogram, in
// input order. Similarity with an all-zero histogram is 0.
func Similarities(query Histogram, histograms []Histogram) ([]float32, error) {
	qn := vector.L2Norm(vector.Point(query))

	out := make([]float32, len(histograms))
	for i, h := range histograms {
		dot, err := vector.Dot(vector.Point(query), vector.Point(h))
		if err != nil {
			return nil, fmt.Errorf("histogram %d: %w", i, err)
		}

		hn := vector.L2Norm(vector.Point(h))
		if qn == 0 || hn == 0 {
			continue
		}
		out[i] = dot / (qn * hn)
	}
	return out, nil
}

// Ranked is a histogram index paired with its similarity.
type Ranked struct {
	Index      int
	Similarity float32
}

// OrderBySimilarity sorts indices by descending similarity. Equal
// similarities keep ascending index order; NaN sorts last.
func OrderBySimilarity(similarities []float32) []Ranked {
	out := make([]Ranked, len(similarities))
	for i, s := range similarities {
		out[i] = Ranked{Index: i, Similarity: s}
	}

	slices.SortStableFunc(out, func(a, b Ranked) int {
		an, bn := math.IsNaN(float64(a.Similarity)), math.IsNaN(float64(b.Similarity))
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	return out
}

// Top returns the first n entries of OrderBySimilarity. A negative n yields
// no entries.
func Top(similarities []float32, n int) []Ranked {
	r := OrderBySimilarity(similarities)
	return r[:min(max(n, 0), len(r))]
}
