// Package notes asks a chat model for structured notes on a paper.
package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Abraxas-365/papernotes/document"
	"github.com/Abraxas-365/papernotes/llm"
	"github.com/Abraxas-365/papernotes/paper"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Options configures a Generator
type Options struct {
	// TokenizerModel selects the encoding used to count prompt tokens
	TokenizerModel string
	// MaxPromptTokens rejects larger papers before the model is called; 0 disables the check
	MaxPromptTokens int
	Logger          *slog.Logger
}

type Option func(*Options)

func WithTokenizerModel(model string) Option {
	return func(o *Options) {
		o.TokenizerModel = model
	}
}

func WithMaxPromptTokens(n int) Option {
	return func(o *Options) {
		o.MaxPromptTokens = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Generator produces notes for a paper with a single model call
type Generator struct {
	model     llm.LLM
	schema    *jsonschema.Schema
	tool      llm.Function
	tokenizer *document.Tokenizer
	opts      Options
}

func NewGenerator(model llm.LLM, opts ...Option) (*Generator, error) {
	options := Options{
		TokenizerModel: "gpt-4",
		Logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("arguments.json", strings.NewReader(argumentsSchema)); err != nil {
		return nil, paper.NewError(paper.KindConfiguration, "notes.NewGenerator", "invalid notes schema", err)
	}
	schema, err := compiler.Compile("arguments.json")
	if err != nil {
		return nil, paper.NewError(paper.KindConfiguration, "notes.NewGenerator", "invalid notes schema", err)
	}

	var params map[string]interface{}
	if err := json.Unmarshal([]byte(notesSchema), &params); err != nil {
		return nil, paper.NewError(paper.KindConfiguration, "notes.NewGenerator", "invalid notes schema", err)
	}

	g := &Generator{
		model:  model,
		schema: schema,
		tool: llm.Function{
			Name:        ToolName,
			Description: toolDescription,
			Parameters:  params,
		},
		opts: options,
	}

	// Counting is best effort; the encoding may be unavailable offline.
	if tk, err := document.NewTokenizer(options.TokenizerModel); err == nil {
		g.tokenizer = tk
	} else if options.MaxPromptTokens > 0 {
		return nil, paper.NewError(paper.KindConfiguration, "notes.NewGenerator", "tokenizer unavailable for prompt limit", err)
	}

	return g, nil
}

// Generate sends the whole paper in one request and returns the notes of every
// tool call, in call order then array order.
func (g *Generator) Generate(ctx context.Context, chunks []document.Document) ([]paper.Note, error) {
	const op = "notes.Generate"

	text := document.FormatAsString(chunks)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrefix + text},
	}

	if g.tokenizer != nil {
		tokens := g.tokenizer.Count(systemPrompt) + g.tokenizer.Count(messages[1].Content)
		g.opts.Logger.Info("notes prompt", "chunks", len(chunks), "tokens", tokens)
		if g.opts.MaxPromptTokens > 0 && tokens > g.opts.MaxPromptTokens {
			return nil, paper.NewError(paper.KindValidation, op,
				fmt.Sprintf("paper is %d tokens, limit is %d", tokens, g.opts.MaxPromptTokens), nil)
		}
	}

	resp, err := g.model.Chat(ctx, messages,
		llm.WithTemperature(0),
		llm.WithFunctions([]llm.Function{g.tool}),
		llm.WithToolChoice(ToolName),
	)
	if err != nil {
		return nil, paper.NewError(paper.KindNetwork, op, "model request failed", err)
	}

	return g.parse(resp)
}

func (g *Generator) parse(resp *llm.Message) ([]paper.Note, error) {
	const op = "notes.parse"

	if resp == nil || len(resp.ToolCalls) == 0 {
		return nil, paper.NewError(paper.KindParsing, op, "no tool calls found", nil)
	}

	var out []paper.Note
	for i, call := range resp.ToolCalls {
		notes, err := g.decodeCall(call)
		if err != nil {
			return nil, paper.NewError(paper.KindParsing, op, fmt.Sprintf("tool call %d (%s)", i, call.Name), err)
		}
		out = append(out, notes...)
	}

	g.opts.Logger.Info("notes generated", "calls", len(resp.ToolCalls), "notes", len(out))
	return out, nil
}

type callArguments struct {
	Notes []struct {
		Note        string    `json:"note"`
		PageNumbers []float64 `json:"pageNumbers"`
	} `json:"notes"`
}

func (g *Generator) decodeCall(call llm.FunctionCall) ([]paper.Note, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(call.Arguments)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := g.schema.Validate(v); err != nil {
		return nil, err
	}

	var args callArguments
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	notes := make([]paper.Note, 0, len(args.Notes))
	for _, n := range args.Notes {
		pages := make([]int, 0, len(n.PageNumbers))
		for _, p := range n.PageNumbers {
			pages = append(pages, int(p))
		}
		notes = append(notes, paper.Note{Note: n.Note, PageNumbers: pages})
	}
	return notes, nil
}
