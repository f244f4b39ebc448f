// Package storage keeps uploaded attachment files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrNotExist = errors.New("file does not exist")

// FileStore persists opaque file blobs addressed by the path Save returns.
type FileStore interface {
	Save(ctx context.Context, data []byte) (string, error)
	Exists(ctx context.Context, path string) (bool, error)
	// Open returns the file's content. A missing file yields ErrNotExist.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the file. Removing a missing file is not an error.
	Delete(ctx context.Context, path string) error
}

// fileName builds a collision-free name whose extension follows the
// detected content, never the client's file name.
func fileName(data []byte) string {
	return fmt.Sprintf("inq_%d_%s%s", time.Now().UnixMilli(), uuid.New().String(), mimetype.Detect(data).Extension())
}
