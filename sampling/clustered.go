package sampling

import "errors"

// ClusterSpec describes synthetic clustered data: Gaussian blobs whose
// means, spreads and sizes are themselves drawn uniformly.
type ClusterSpec struct {
	Dimensions int
	Clusters   int

	// MinValue and MaxValue bound the cluster means.
	MinValue float32
	MaxValue float32

	// MinStd and MaxStd bound the per-dimension standard deviations.
	MinStd float32
	MaxStd float32

	// MinSamples and MaxSamples bound the number of points per cluster.
	MinSamples int
	MaxSamples int
}

// DefaultClusterSpec returns five 2-d clusters of ten points each.
func DefaultClusterSpec() ClusterSpec {
	return ClusterSpec{
		Dimensions: 2,
		Clusters:   5,
		MinValue:   -10,
		MaxValue:   10,
		MinStd:     0.5,
		MaxStd:     0.5,
		MinSamples: 10,
		MaxSamples: 10,
	}
}

// ClusteredPoints generates shuffled points according to spec and returns
// them together with the index of the cluster each point was drawn from,
// and the cluster means.
func (r *RNG) ClusteredPoints(spec ClusterSpec) (points [][]float32, labels []int, means [][]float32, err error) {
	if spec.Dimensions <= 0 || spec.Clusters <= 0 {
		return nil, nil, nil, errors.New("clustered points: dimensions and clusters must be positive")
	}
	if spec.MinSamples < 0 || spec.MaxSamples < spec.MinSamples {
		return nil, nil, nil, errors.New("clustered points: invalid sample range")
	}

	means = r.UniformVectors(spec.Clusters, spec.Dimensions, spec.MinValue, spec.MaxValue)
	stds := r.UniformVectors(spec.Clusters, spec.Dimensions, spec.MinStd, spec.MaxStd)

	r.mu.Lock()
	defer r.mu.Unlock()

	sizes := make([]int, spec.Clusters)
	total := 0
	for c := range sizes {
		sizes[c] = spec.MinSamples + r.rand.Intn(spec.MaxSamples-spec.MinSamples+1)
		total += sizes[c]
	}

	points = make([][]float32, 0, total)
	labels = make([]int, 0, total)
	for c, size := range sizes {
		for range size {
			points = append(points, r.normalLocked(means[c], stds[c]))
			labels = append(labels, c)
		}
	}

	r.rand.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
		labels[i], labels[j] = labels[j], labels[i]
	})

	return points, labels, means, nil
}
