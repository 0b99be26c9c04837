package stores

import (
	"context"
	"io"
)

// Store holds raw audio blobs keyed by an opaque path. The database keeps the
// key; the bytes live here.
type Store interface {
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Read(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}
