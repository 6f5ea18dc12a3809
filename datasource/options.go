package datasource

// FetchOptions represents options for a single fetch
type FetchOptions struct {
	// MaxBytes caps the response size (0 for no limit)
	MaxBytes int64
	// Accept is sent as the Accept header by HTTP fetchers
	Accept string
}

// Option is a function type to modify FetchOptions
type Option func(*FetchOptions)

// NewFetchOptions applies opts over the defaults
func NewFetchOptions(opts ...Option) *FetchOptions {
	options := &FetchOptions{Accept: "application/pdf"}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithMaxBytes limits the size of the fetched body
func WithMaxBytes(max int64) Option {
	return func(o *FetchOptions) {
		o.MaxBytes = max
	}
}

// WithAccept overrides the Accept header
func WithAccept(accept string) Option {
	return func(o *FetchOptions) {
		o.Accept = accept
	}
}
