// Package mirror replicates the document library to an S3-compatible
// object store. Transfers are user-triggered, whole-object and
// idempotent: running a sync twice converges on the same end state.
package mirror

import "context"

// ObjectStore is the storage contract the mirror transfers through.
type ObjectStore interface {
	// Upload writes data under key, overwriting any existing object.
	Upload(ctx context.Context, key string, data []byte) error

	// Download reads the object at key.
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// List returns all keys under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
