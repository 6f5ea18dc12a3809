package websource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Abraxas-365/papernotes/datasource"
)

// WebSource fetches documents over HTTP(S)
type WebSource struct {
	client *http.Client
}

// NewWebSource creates a fetcher. A zero timeout keeps the http.Client default (none).
func NewWebSource(timeout time.Duration) *WebSource {
	return NewWebSourceWithClient(&http.Client{Timeout: timeout})
}

func NewWebSourceWithClient(client *http.Client) *WebSource {
	return &WebSource{client: client}
}

func (w *WebSource) Fetch(ctx context.Context, url string, opts ...datasource.Option) ([]byte, error) {
	options := datasource.NewFetchOptions(opts...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &datasource.DataSourceError{
			Source:  url,
			Op:      "Fetch",
			Err:     err,
			Code:    datasource.ErrCodeInvalidSource,
			Message: "invalid URL",
		}
	}
	if options.Accept != "" {
		req.Header.Set("Accept", options.Accept)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, &datasource.DataSourceError{
			Source:  url,
			Op:      "Fetch",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to fetch URL",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code := datasource.ErrCodeHTTPStatus
		if resp.StatusCode == http.StatusNotFound {
			code = datasource.ErrCodeNotFound
		}
		return nil, &datasource.DataSourceError{
			Source:  url,
			Op:      "Fetch",
			Code:    code,
			Message: "failed to fetch URL: " + resp.Status,
		}
	}

	var body io.Reader = resp.Body
	if options.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, options.MaxBytes+1)
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, &datasource.DataSourceError{
			Source:  url,
			Op:      "Fetch",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to read response body",
		}
	}
	if options.MaxBytes > 0 && int64(len(content)) > options.MaxBytes {
		return nil, &datasource.DataSourceError{
			Source:  url,
			Op:      "Fetch",
			Code:    datasource.ErrCodeTooLarge,
			Message: fmt.Sprintf("response exceeds %d bytes", options.MaxBytes),
		}
	}

	return content, nil
}
