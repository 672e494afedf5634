// Package provider defines abstractions for mirror storage targets.
//
// Stores implement a minimal surface: metadata lookup and upload.
// Authentication uses SDK default credential chains - stores should not
// implement custom auth logic.
package provider

import (
	"context"
	"io"
	"time"
)

// Store abstracts an object storage target for asset mirroring.
//
// Implementations should:
//   - Use SDK default credential chains (AWS default config)
//   - Be safe for concurrent use
type Store interface {
	// Head returns metadata for a single object.
	// Returns ErrNotFound if the object does not exist.
	Head(ctx context.Context, key string) (*ObjectMeta, error)

	// PutObject creates or overwrites an object.
	PutObject(ctx context.Context, key string, body io.Reader, contentLength int64) error

	// Close releases any resources held by the store.
	Close() error
}

// ObjectMeta contains metadata for a single object, as returned by
// Head operations.
type ObjectMeta struct {
	// Key is the full object key (path) in the bucket.
	Key string

	// Size is the object size in bytes.
	Size int64

	// ETag is the entity tag, typically an MD5 hash of the object.
	// Empty for stores without content hashing.
	ETag string

	// LastModified is when the object was last modified.
	LastModified time.Time
}

// StoreType identifies a mirror storage backend.
type StoreType string

const (
	// StoreS3 represents AWS S3 or S3-compatible storage.
	StoreS3 StoreType = "s3"

	// StoreFile represents a local filesystem directory.
	StoreFile StoreType = "file"
)

// String returns the string representation of the store type.
func (s StoreType) String() string {
	return string(s)
}
