// Package core defines the blob storage contract behind attachment
// persistence. Higher layers depend on Store and never on a concrete driver.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob backend.
type Driver string

const (
	// DriverFilesystem stores blobs under a local directory (default, dev).
	DriverFilesystem Driver = "fs"
	// DriverS3 stores blobs in an S3 or MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps blobs in process memory (tests).
	DriverMemory Driver = "memory"
)

// PutOptions carries optional write parameters.
type PutOptions struct {
	// ContentType is the MIME type recorded with the blob.
	ContentType string
	// Metadata is small flat user metadata stored alongside the blob.
	Metadata map[string]string
}

// SignedURLOptions configures pre-signed URL generation.
type SignedURLOptions struct {
	// Method is GET or PUT; only GET is used by the attachment flow.
	Method string
	// Expiry defaults to 15 minutes when zero.
	Expiry time.Duration
	// Headers are extra signed headers, driver permitting.
	Headers map[string]string
}

// Info describes one stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the minimal blob interface the attachment repository needs. Put is
// create-only; upload keys carry a unique stored name so re-uploading a field
// never collides.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

// ErrUnsupported is returned when a driver lacks an optional capability.
var ErrUnsupported = errors.New("blobstore: unsupported operation")
