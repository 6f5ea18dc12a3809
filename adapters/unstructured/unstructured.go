// Package unstructured partitions PDFs with the Unstructured hosted API.
package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Abraxas-365/papernotes/document"
	"github.com/Abraxas-365/papernotes/paper"
)

const (
	DefaultURL      = "https://api.unstructuredapp.io/general/v0/general"
	DefaultStrategy = "hi_res"
	apiKeyHeader    = "unstructured-api-key"
)

type element struct {
	Type      string                 `json:"type"`
	ElementID string                 `json:"element_id"`
	Text      string                 `json:"text"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// Extractor uploads the PDF to the partition endpoint
type Extractor struct {
	client   *http.Client
	url      string
	apiKey   string
	strategy string
}

type Option func(*Extractor)

func WithURL(url string) Option {
	return func(e *Extractor) {
		if url != "" {
			e.url = url
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(e *Extractor) {
		e.client = client
	}
}

func WithStrategy(strategy string) Option {
	return func(e *Extractor) {
		e.strategy = strategy
	}
}

// NewExtractor fails with a configuration error when apiKey is empty
func NewExtractor(apiKey string, opts ...Option) (*Extractor, error) {
	if apiKey == "" {
		return nil, paper.NewError(paper.KindConfiguration, "unstructured.NewExtractor", "UNSTRUCTURED_API_KEY is not set", nil)
	}
	e := &Extractor{
		client:   http.DefaultClient,
		url:      DefaultURL,
		apiKey:   apiKey,
		strategy: DefaultStrategy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Extractor) Extract(ctx context.Context, pdf []byte) ([]document.Document, error) {
	const op = "unstructured.Extract"

	tmp, err := os.CreateTemp("", "paper-*"+paper.PDFSuffix)
	if err != nil {
		return nil, paper.NewError(paper.KindExtraction, op, "failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(pdf); err != nil {
		return nil, paper.NewError(paper.KindExtraction, op, "failed to write temp file", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, paper.NewError(paper.KindExtraction, op, "failed to rewind temp file", err)
	}

	body, contentType, err := e.multipartBody(tmp)
	if err != nil {
		return nil, paper.NewError(paper.KindExtraction, op, "failed to build request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, body)
	if err != nil {
		return nil, paper.NewError(paper.KindExtraction, op, "failed to create request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, paper.NewError(paper.KindExtraction, op, "partition request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, paper.NewError(paper.KindExtraction, op, fmt.Sprintf("partition returned status %d: %s", resp.StatusCode, detail), nil)
	}

	var elements []element
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, paper.NewError(paper.KindExtraction, op, "failed to decode partition response", err)
	}

	return toDocuments(elements), nil
}

func (e *Extractor) multipartBody(f *os.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("files", filepath.Base(f.Name()))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("strategy", e.strategy); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func toDocuments(elements []element) []document.Document {
	docs := make([]document.Document, 0, len(elements))
	for _, el := range elements {
		if el.Text == "" {
			continue
		}
		meta := make(map[string]interface{}, len(el.Metadata)+2)
		for k, v := range el.Metadata {
			meta[k] = v
		}
		if el.Type != "" {
			meta[document.MetaCategory] = el.Type
		}
		if el.ElementID != "" {
			meta[document.MetaElementID] = el.ElementID
		}
		docs = append(docs, document.Document{
			PageContent: el.Text,
			Metadata:    meta,
		})
	}
	return docs
}
