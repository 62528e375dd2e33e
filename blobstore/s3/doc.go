// Package s3 stores blobs in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("codebooks/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// or, with a client you configured yourself:
//
//	store := s3.NewStore(client, "my-bucket", "codebooks/")
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart streaming uploads through the SDK upload manager
//   - CRC32C integrity checks on upload
//   - Automatic pagination for listing
package s3
