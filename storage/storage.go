package storage

import (
	"context"
	"io"
)

// DataStore represents a generic interface for object storage operations
type DataStore interface {
	Put(ctx context.Context, key string, data io.Reader, options ...PutOption) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOption allows customizing Put operations
type PutOption func(*PutOptions)

// PutOptions contains configuration for Put operations
type PutOptions struct {
	ContentType        string
	Metadata           map[string]string
	ContentDisposition string
}

// WithContentType sets the content type for the object
func WithContentType(contentType string) PutOption {
	return func(o *PutOptions) {
		o.ContentType = contentType
	}
}

// WithMetadata sets additional metadata for the object
func WithMetadata(metadata map[string]string) PutOption {
	return func(o *PutOptions) {
		o.Metadata = metadata
	}
}

// WithContentDisposition sets the Content-Disposition header for the object
func WithContentDisposition(contentDisposition string) PutOption {
	return func(o *PutOptions) {
		o.ContentDisposition = contentDisposition
	}
}
