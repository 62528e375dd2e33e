// Package kforest clusters float32 vectors with k-means and answers
// approximate nearest-neighbour queries with a forest of random-projection
// trees.
//
// # Quick Start
//
//	c, err := kforest.New(
//	    kforest.WithNumClusters(256),
//	    kforest.WithMaxIterations(25),
//	    kforest.WithSeed(42),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	centroids, err := c.ClusterCentroids(ctx, features)
//
// # Variants
//
// Three algorithms share one configuration:
//
//	kmeans.Lloyd         // exhaustive assignment, the reference (default)
//	kmeans.IndexedLloyd  // assignment through a forest rebuilt each iteration
//	kmeans.Flat          // exhaustive assignment on contiguous buffers
//
// IndexedLloyd trades exactness of the assignment step for speed when the
// number of clusters is large.
//
// # Nearest-Neighbour Search
//
//	ix, _ := kforest.NewIndex(ctx, centroids, kforest.WithIndex(10, 100, 5))
//	word, _ := ix.ApproximateNearestNeighbor(feature)
//	hits, _ := ix.Search(feature, 5)
//
// # Codebooks
//
// Centroid sets are persisted in a checksummed, optionally compressed
// format on any blobstore.BlobStore:
//
//	store := blobstore.NewLocalStore("./codebooks")
//	_ = kforest.SaveCodebook(ctx, store, "words.kfcb", centroids, codebook.CompressionZSTD)
//	centroids, _ = kforest.LoadCodebook(ctx, store, "words.kfcb")
//
// Determinism: all randomness derives from the configured seed, so equal
// seeds and inputs give equal centroids regardless of worker count.
package kforest
