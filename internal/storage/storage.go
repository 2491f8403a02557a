package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains object storage abstractions for S3-compatible
// backends. Implementations must rely on streaming I/O only, no local disk.

// ErrBucketNotFound reports that the named destination does not exist in the
// backend. Callers treat it as an operator/configuration defect, distinct
// from generic transport failure.
var ErrBucketNotFound = errors.New("storage: bucket not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Bucket       string
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is a reusable S3-compatible object storage client spanning the
// service's destinations (one bucket per media kind).
type Storage interface {
	// Put uploads an object into the named bucket under key.
	Put(ctx context.Context, bucket, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object.
	Delete(ctx context.Context, bucket, key string) error
	// BucketExists reports whether the destination exists.
	BucketExists(ctx context.Context, bucket string) (bool, error)
}
