package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrInvalidBlobName = errors.New("invalid blob name")
)

type BlobInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// BlobStore keeps uploaded file contents under flat names such as "42.mp3".
// It has no transactions: a successful Write is durable before it returns.
type BlobStore interface {
	Write(ctx context.Context, name string, contentType string, r io.Reader) (int64, error)
	Stat(ctx context.Context, name string) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]BlobInfo, error)
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, c := range name {
		if c == '/' || c == '\\' || c == 0 {
			return false
		}
	}
	return true
}
