package datasource

import (
	"context"
	"net/url"
)

// Fetcher retrieves the raw bytes behind a URL
type Fetcher interface {
	// Fetch performs a single retrieval; it never retries
	Fetch(ctx context.Context, rawURL string, opts ...Option) ([]byte, error)
}

// SchemeRouter dispatches to a Fetcher by URL scheme
type SchemeRouter map[string]Fetcher

func (r SchemeRouter) Fetch(ctx context.Context, rawURL string, opts ...Option) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &DataSourceError{
			Source:  rawURL,
			Op:      "Fetch",
			Err:     err,
			Code:    ErrCodeInvalidSource,
			Message: "invalid URL",
		}
	}

	f, ok := r[u.Scheme]
	if !ok {
		return nil, &DataSourceError{
			Source:  rawURL,
			Op:      "Fetch",
			Code:    ErrCodeInvalidSource,
			Message: "unsupported scheme " + u.Scheme,
		}
	}
	return f.Fetch(ctx, rawURL, opts...)
}
