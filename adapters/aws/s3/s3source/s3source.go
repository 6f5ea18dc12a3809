package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Abraxas-365/papernotes/datasource"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// GetObjectAPI is the part of the S3 client the source needs
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source fetches s3://bucket/key URLs
type S3Source struct {
	client GetObjectAPI
}

func NewS3Source(client GetObjectAPI) *S3Source {
	return &S3Source{client: client}
}

func (s *S3Source) Fetch(ctx context.Context, rawURL string, opts ...datasource.Option) ([]byte, error) {
	options := datasource.NewFetchOptions(opts...)

	bucket, key, err := parseURL(rawURL)
	if err != nil {
		return nil, &datasource.DataSourceError{
			Source:  rawURL,
			Op:      "Fetch",
			Err:     err,
			Code:    datasource.ErrCodeInvalidSource,
			Message: "invalid s3 URL",
		}
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		code := datasource.ErrCodeInternal
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			code = datasource.ErrCodeNotFound
		}
		return nil, &datasource.DataSourceError{
			Source:  rawURL,
			Op:      "Fetch",
			Err:     err,
			Code:    code,
			Message: "failed to get object",
		}
	}
	defer result.Body.Close()

	var body io.Reader = result.Body
	if options.MaxBytes > 0 {
		body = io.LimitReader(result.Body, options.MaxBytes+1)
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, &datasource.DataSourceError{
			Source:  rawURL,
			Op:      "Fetch",
			Err:     err,
			Code:    datasource.ErrCodeInternal,
			Message: "failed to read object content",
		}
	}
	if options.MaxBytes > 0 && int64(len(content)) > options.MaxBytes {
		return nil, &datasource.DataSourceError{
			Source:  rawURL,
			Op:      "Fetch",
			Code:    datasource.ErrCodeTooLarge,
			Message: fmt.Sprintf("object exceeds %d bytes", options.MaxBytes),
		}
	}

	return content, nil
}

func parseURL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("scheme %q is not s3", u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("expected s3://bucket/key, got %q", rawURL)
	}
	return u.Host, key, nil
}
