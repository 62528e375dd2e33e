package histogram

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/kforest/vector"
)

// Vocabulary tracks in which documents each word occurs.
type Vocabulary struct {
	docs []*roaring.Bitmap
	all  *roaring.Bitmap
}

// NewVocabulary returns an empty vocabulary of numWords words.
func NewVocabulary(numWords int) *Vocabulary {
	v := &Vocabulary{
		docs: make([]*roaring.Bitmap, numWords),
		all:  roaring.New(),
	}
	for i := range v.docs {
		v.docs[i] = roaring.New()
	}
	return v
}

// NumWords returns the vocabulary size.
func (v *Vocabulary) NumWords() int { return len(v.docs) }

// NumDocuments returns the number of distinct documents added.
func (v *Vocabulary) NumDocuments() uint64 { return v.all.GetCardinality() }

// Add records that document doc contains every word with a non-zero bin in
// h. Adding the same document twice merges its words.
func (v *Vocabulary) Add(doc uint32, h Histogram) error {
	if len(h) != len(v.docs) {
		return fmt.Errorf("document %d: %w", doc, &vector.ErrDimensionMismatch{Expected: len(v.docs), Actual: len(h)})
	}

	v.all.Add(doc)
	for w, c := range h {
		if c > 0 {
			v.docs[w].Add(doc)
		}
	}
	return nil
}

// DocumentFrequency returns the number of documents containing word.
func (v *Vocabulary) DocumentFrequency(word int) uint64 {
	return v.docs[word].GetCardinality()
}

// Documents returns a copy of the set of documents containing word.
func (v *Vocabulary) Documents(word int) *roaring.Bitmap {
	return v.docs[word].Clone()
}

// Weights returns the inverse document frequency log(N/df) of every word.
// Words no document contains get weight 0.
func (v *Vocabulary) Weights() []float32 {
	n := float64(v.NumDocuments())

	out := make([]float32, len(v.docs))
	for w, d := range v.docs {
		if df := d.GetCardinality(); df > 0 {
			out[w] = float32(math.Log(n / float64(df)))
		}
	}
	return out
}

// Index holds reweighted histograms of a document collection for similarity
// queries.
type Index struct {
	vocab      *Vocabulary
	weights    []float32
	histograms []Histogram
}

// NewIndex builds a vocabulary over raw histograms, one per document in
// order, and stores their tf-idf reweighted form.
func NewIndex(histograms []Histogram) (*Index, error) {
	if len(histograms) == 0 {
		return nil, vector.ErrEmptyInput
	}

	vocab := NewVocabulary(len(histograms[0]))
	for i, h := range histograms {
		if err := vocab.Add(uint32(i), h); err != nil {
			return nil, err
		}
	}

	weights := vocab.Weights()
	weighted := make([]Histogram, len(histograms))
	for i, h := range histograms {
		w, err := Reweight(h, weights)
		if err != nil {
			return nil, err
		}
		weighted[i] = w
	}

	return &Index{vocab: vocab, weights: weights, histograms: weighted}, nil
}

// Vocabulary returns the document statistics.
func (ix *Index) Vocabulary() *Vocabulary { return ix.vocab }

// Weights returns the idf weights.
func (ix *Index) Weights() []float32 { return ix.weights }

// Histogram returns the reweighted histogram of document i.
func (ix *Index) Histogram(i int) Histogram { return ix.histograms[i] }

// Query reweights a raw histogram and returns the n most similar documents.
func (ix *Index) Query(raw Histogram, n int) ([]Ranked, error) {
	if n <= 0 {
		return nil, fmt.Errorf("query %d documents: %w", n, ErrInvalidN)
	}

	q, err := Reweight(raw, ix.weights)
	if err != nil {
		return nil, err
	}

	sims, err := Similarities(q, ix.histograms)
	if err != nil {
		return nil, err
	}
	return Top(sims, n), nil
}
