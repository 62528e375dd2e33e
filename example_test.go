package kforest_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/kforest"
	"github.com/hupe1980/kforest/blobstore"
	"github.com/hupe1980/kforest/codebook"
	"github.com/hupe1980/kforest/kmeans"
	"github.com/hupe1980/kforest/vector"
)

func twoGroups() []vector.Point {
	return []vector.Point{
		{0, 0}, {0, 1}, {1, 0}, {1, 1},
		{10, 10}, {10, 11}, {11, 10}, {11, 11},
	}
}

// Example_run clusters two well separated groups.
func Example_run() {
	c, err := kforest.New(
		kforest.WithVariant(kmeans.Lloyd),
		kforest.WithNumClusters(2),
		kforest.WithSeed(1),
	)
	if err != nil {
		log.Fatal(err)
	}

	r, err := c.Run(context.Background(), twoGroups())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(len(r.Centroids), r.State)
	fmt.Println(r.Assignments[0] == r.Assignments[3], r.Assignments[0] != r.Assignments[4])
	// Output:
	// 2 converged
	// true true
}

// Example_index finds the nearest indexed point.
func Example_index() {
	ix, err := kforest.NewIndex(context.Background(), twoGroups(), kforest.WithIndex(4, 32, 2))
	if err != nil {
		log.Fatal(err)
	}

	nearest, err := ix.ApproximateNearestNeighbor(vector.Point{10.2, 10.9})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(nearest)
	// Output: 5
}

// Example_codebook stores and reloads a centroid set.
func Example_codebook() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	centroids := []vector.Point{{0.5, 0.5}, {10.5, 10.5}}
	if err := kforest.SaveCodebook(ctx, store, "words.kfcb", centroids, codebook.CompressionZSTD); err != nil {
		log.Fatal(err)
	}

	loaded, err := kforest.LoadCodebook(ctx, store, "words.kfcb")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(loaded)
	// Output: [[0.5 0.5] [10.5 10.5]]
}
