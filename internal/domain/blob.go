package domain

import "context"

// BlobStore abstracts the remote object store holding image bytes.
// Put returns the public URL under which the object is retrievable.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
