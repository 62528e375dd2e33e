package kforest

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    runs       prometheus.Counter
//	    iterations prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordClustering(variant string, iterations int, d time.Duration, err error) {
//	    p.runs.Inc()
//	    p.iterations.Observe(float64(iterations))
//	}
type MetricsCollector interface {
	// RecordClustering is called after each clustering run.
	RecordClustering(variant string, iterations int, duration time.Duration, err error)

	// RecordIteration is called after each assign/update round.
	// changed is the number of points that switched clusters.
	RecordIteration(displacement float32, changed int, duration time.Duration)

	// RecordIndexBuild is called after each forest construction.
	RecordIndexBuild(points int, duration time.Duration, err error)

	// RecordQuery is called after each nearest-neighbour query.
	RecordQuery(k int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordClustering(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordIteration(float32, int, time.Duration)        {}
func (NoopMetricsCollector) RecordIndexBuild(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ClusteringCount      atomic.Int64
	ClusteringErrors     atomic.Int64
	ClusteringTotalNanos atomic.Int64
	IterationCount       atomic.Int64
	IterationTotalNanos  atomic.Int64
	ReassignedPoints     atomic.Int64
	IndexBuildCount      atomic.Int64
	IndexBuildErrors     atomic.Int64
	IndexedPoints        atomic.Int64
	QueryCount           atomic.Int64
	QueryErrors          atomic.Int64
	QueryTotalNanos      atomic.Int64
}

// RecordClustering implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClustering(_ string, _ int, duration time.Duration, err error) {
	b.ClusteringCount.Add(1)
	b.ClusteringTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ClusteringErrors.Add(1)
	}
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(_ float32, changed int, duration time.Duration) {
	b.IterationCount.Add(1)
	b.IterationTotalNanos.Add(duration.Nanoseconds())
	b.ReassignedPoints.Add(int64(changed))
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(points int, _ time.Duration, err error) {
	b.IndexBuildCount.Add(1)
	if err != nil {
		b.IndexBuildErrors.Add(1)
		return
	}
	b.IndexedPoints.Add(int64(points))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ClusteringCount:    b.ClusteringCount.Load(),
		ClusteringErrors:   b.ClusteringErrors.Load(),
		ClusteringAvgNanos: avg(b.ClusteringTotalNanos.Load(), b.ClusteringCount.Load()),
		IterationCount:     b.IterationCount.Load(),
		IterationAvgNanos:  avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		ReassignedPoints:   b.ReassignedPoints.Load(),
		IndexBuildCount:    b.IndexBuildCount.Load(),
		IndexBuildErrors:   b.IndexBuildErrors.Load(),
		IndexedPoints:      b.IndexedPoints.Load(),
		QueryCount:         b.QueryCount.Load(),
		QueryErrors:        b.QueryErrors.Load(),
		QueryAvgNanos:      avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ClusteringCount    int64
	ClusteringErrors   int64
	ClusteringAvgNanos int64
	IterationCount     int64
	IterationAvgNanos  int64
	ReassignedPoints   int64
	IndexBuildCount    int64
	IndexBuildErrors   int64
	IndexedPoints      int64
	QueryCount         int64
	QueryErrors        int64
	QueryAvgNanos      int64
}
