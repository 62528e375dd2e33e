// Package minio keeps codebooks in MinIO or another S3-compatible object
// store through the MinIO Go client.
//
// A Store plugs into kforest.SaveCodebook and kforest.LoadCodebook:
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "codebooks/")
//	err = kforest.SaveCodebook(ctx, store, "words.kfcb", centroids, codebook.CompressionZSTD)
//	...
//	centroids, err = kforest.LoadCodebook(ctx, store, "words.kfcb")
//
// Ceph, Garage and SeaweedFS work as well.
package minio
