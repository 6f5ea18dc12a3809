package embedding

// EmbeddingOptions configures an embedder adapter
type EmbeddingOptions struct {
	Model string

	// BatchSize is the maximum number of texts per request
	BatchSize int

	// Normalize scales every vector to unit length
	Normalize bool

	// Truncate cuts texts that exceed the model input limit instead of failing
	Truncate bool
}

// Option is a function type to modify EmbeddingOptions
type Option func(*EmbeddingOptions)

// Apply returns a copy of defaults with opts applied
func Apply(defaults EmbeddingOptions, opts ...Option) *EmbeddingOptions {
	options := defaults
	for _, opt := range opts {
		opt(&options)
	}
	return &options
}

func WithModel(model string) Option {
	return func(o *EmbeddingOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithBatchSize(size int) Option {
	return func(o *EmbeddingOptions) {
		o.BatchSize = size
	}
}

func WithNormalization(normalize bool) Option {
	return func(o *EmbeddingOptions) {
		o.Normalize = normalize
	}
}

func WithTruncation(truncate bool) Option {
	return func(o *EmbeddingOptions) {
		o.Truncate = truncate
	}
}
