package object

import (
	"context"
	"io"
)

// ObjectStore keeps an archival copy of every uploaded document, keyed by
// project. The remote index owns the searchable copy; this one survives
// out-of-band remote deletions.
type ObjectStore interface {
	Save(ctx context.Context, projectID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
