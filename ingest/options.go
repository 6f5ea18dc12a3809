package ingest

import (
	"log/slog"

	"github.com/Abraxas-365/papernotes/storage"
)

// DefaultArchivePrefix is the key prefix of archived PDFs
const DefaultArchivePrefix = "papers"

// Options contains the optional collaborators of a Pipeline
type Options struct {
	Archive       storage.DataStore
	ArchivePrefix string
	QA            QARepository
	MaxPDFBytes   int64
	Logger        *slog.Logger
}

// Option is a function type to modify Options
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		ArchivePrefix: DefaultArchivePrefix,
		Logger:        slog.Default(),
	}
}

// WithArchive stores every edited PDF before extraction
func WithArchive(store storage.DataStore) Option {
	return func(o *Options) {
		o.Archive = store
	}
}

func WithArchivePrefix(prefix string) Option {
	return func(o *Options) {
		o.ArchivePrefix = prefix
	}
}

// WithQARepository enables SaveQA
func WithQARepository(repo QARepository) Option {
	return func(o *Options) {
		o.QA = repo
	}
}

// WithMaxPDFBytes caps the size of a downloaded paper
func WithMaxPDFBytes(n int64) Option {
	return func(o *Options) {
		o.MaxPDFBytes = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}
