// Package storage archives uploaded ITR documents in an S3-compatible object store.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// documentPrefix groups archived income-tax returns.
const documentPrefix = "itr"

// PutObjectOptions define optional parameters for uploading objects.
// Size is the exact byte count, or -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// Storage is the subset of object storage the ingestion pipeline needs.
type Storage interface {
	// Put uploads an object under key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// DocumentKey builds the object key for a user's archived document,
// keeping the extension of the uploaded filename.
func DocumentKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(documentPrefix, userID, uuid.NewString()+ext)
}
