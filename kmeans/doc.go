// Package kmeans clusters point sets with Lloyd's algorithm.
//
// Three variants share one Strategy interface:
//
//   - Lloyd assigns every point to its nearest centroid by exhaustive scan.
//   - IndexedLloyd rebuilds a forest.Index over the centroids each iteration
//     and assigns approximately. It pays off for large cluster counts.
//   - Flat runs over one contiguous buffer and stops as soon as no point
//     changes cluster.
//
// Each iteration assigns all points against a frozen centroid set in
// parallel, waits for every worker, then recomputes the means. Clusters that
// receive no point keep their previous centroid.
//
// Lloyd and IndexedLloyd stop before the next iteration once the largest
// centroid displacement of the previous one fell below Epsilon, or when
// MaxIterations iterations have run.
package kmeans
