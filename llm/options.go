package llm

// ChatOptions represents options for chat completion
type ChatOptions struct {
	Temperature *float32   // nil leaves the provider default
	TopP        float32    // Controls diversity (0.0 to 1.0)
	MaxTokens   int        // Maximum number of tokens to generate
	Stop        []string   // Stop sequences
	Functions   []Function // Available tools
	ToolChoice  string     // Force a specific tool by name
}

// Option is a function type to modify ChatOptions
type Option func(*ChatOptions)

// NewChatOptions applies opts over the zero options
func NewChatOptions(opts ...Option) *ChatOptions {
	options := &ChatOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithTemperature pins the sampling temperature. Zero is honoured.
func WithTemperature(temp float32) Option {
	return func(o *ChatOptions) {
		o.Temperature = &temp
	}
}

func WithTopP(topP float32) Option {
	return func(o *ChatOptions) {
		o.TopP = topP
	}
}

func WithMaxTokens(tokens int) Option {
	return func(o *ChatOptions) {
		o.MaxTokens = tokens
	}
}

func WithStop(stop []string) Option {
	return func(o *ChatOptions) {
		o.Stop = stop
	}
}

func WithFunctions(functions []Function) Option {
	return func(o *ChatOptions) {
		o.Functions = functions
	}
}

// WithToolChoice forces the model to call the named tool
func WithToolChoice(name string) Option {
	return func(o *ChatOptions) {
		o.ToolChoice = name
	}
}
