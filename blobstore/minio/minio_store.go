package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/kforest/blobstore"
)

var _ blobstore.BlobStore = (*Store)(nil)

// Store keeps encoded codebooks as objects in a MinIO bucket. It is the
// store handed to kforest.SaveCodebook and kforest.LoadCodebook when
// centroids are shared between processes through object storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore returns a Store writing under prefix in bucket. Codebook names
// are joined to the prefix, so "words.kfcb" with prefix "codebooks/" lands
// at "codebooks/words.kfcb".
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) objectKey(name string) string {
	return path.Join(s.prefix, name)
}

// codebookName is the inverse of objectKey.
func (s *Store) codebookName(objectKey string) string {
	dir := strings.TrimSuffix(s.prefix, "/")
	if dir == "" {
		return objectKey
	}
	return strings.TrimPrefix(strings.TrimPrefix(objectKey, dir), "/")
}

func missing(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// Open looks up a stored codebook. The returned blob fetches byte ranges
// on demand, so reading just the header costs a single small request.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	objectKey := s.objectKey(name)

	info, err := s.client.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if missing(err) {
			return nil, fmt.Errorf("codebook %s: %w", name, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("stat codebook %s: %w", name, err)
	}

	return &codebookObject{s: s, objectKey: objectKey, size: info.Size}, nil
}

// Put stores an encoded codebook with a single PutObject call.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	r := bytes.NewReader(data)
	if _, err := s.client.PutObject(ctx, s.bucket, s.objectKey(name), r, r.Size(), minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("put codebook %s: %w", name, err)
	}
	return nil
}

// Create starts a streaming upload of a codebook whose length is not
// known up front. The object becomes visible once Close returns nil.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	u := &upload{pw: pw, result: make(chan error, 1)}

	objectKey := s.objectKey(name)
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, objectKey, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		u.result <- err
	}()
	return u, nil
}

// Delete removes a codebook; deleting one that does not exist succeeds.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(name), minio.RemoveObjectOptions{})
	if err != nil && !missing(err) {
		return fmt.Errorf("delete codebook %s: %w", name, err)
	}
	return nil
}

// List returns the sorted names of codebooks starting with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	opts := minio.ListObjectsOptions{Prefix: s.objectKey(prefix), Recursive: true}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list codebooks: %w", obj.Err)
		}
		if name := s.codebookName(obj.Key); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type codebookObject struct {
	s         *Store
	objectKey string
	size      int64
}

func (o *codebookObject) Size() int64 { return o.size }

func (o *codebookObject) Close() error { return nil }

// fetch requests bytes [first, last] inclusive.
func (o *codebookObject) fetch(ctx context.Context, first, last int64) (*minio.Object, error) {
	var opts minio.GetObjectOptions
	if err := opts.SetRange(first, last); err != nil {
		return nil, err
	}
	return o.s.client.GetObject(ctx, o.s.bucket, o.objectKey, opts)
}

func (o *codebookObject) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= o.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	n := min(int64(len(p)), o.size-off)
	obj, err := o.fetch(ctx, off, off+n-1)
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	read, err := io.ReadFull(obj, p[:n])
	if err == nil && int(n) < len(p) {
		err = io.EOF
	}
	return read, err
}

func (o *codebookObject) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off >= o.size {
		return nil, io.EOF
	}
	obj, err := o.fetch(ctx, off, min(off+length, o.size)-1)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// upload feeds a background PutObject through a pipe.
type upload struct {
	pw     *io.PipeWriter
	result chan error
	closed atomic.Bool
}

func (u *upload) Write(p []byte) (int, error) {
	if u.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return u.pw.Write(p)
}

func (u *upload) Close() error {
	if !u.closed.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := u.pw.Close(); err != nil {
		return err
	}
	return <-u.result
}

// Abort drops a partially written codebook.
func (u *upload) Abort() error {
	if !u.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = u.pw.CloseWithError(context.Canceled)
	<-u.result
	return nil
}

func (u *upload) Sync() error { return nil }
