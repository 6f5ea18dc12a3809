package openai

import (
	"context"
	"errors"
	"math"

	"github.com/Abraxas-365/papernotes/llm"
	"github.com/sashabaranov/go-openai"
)

// DefaultChatModel is the model the notes were originally tuned against
const DefaultChatModel = openai.GPT4TurboPreview

type OpenAILLM struct {
	client *openai.Client
	model  string
}

func NewOpenAILLM(apiKey string, model string) *OpenAILLM {
	return NewOpenAILLMWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewOpenAILLMWithConfig allows a custom base URL or HTTP client
func NewOpenAILLMWithConfig(config openai.ClientConfig, model string) *OpenAILLM {
	if model == "" {
		model = DefaultChatModel
	}
	return &OpenAILLM{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (o *OpenAILLM) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Message, error) {
	options := llm.NewChatOptions(opts...)

	openAIMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openAIMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
			Name:    msg.Name,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:     o.model,
		Messages:  openAIMessages,
		TopP:      options.TopP,
		MaxTokens: options.MaxTokens,
		Stop:      options.Stop,
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
		// the request field is omitempty, so an exact zero would fall back to the API default
		if req.Temperature == 0 {
			req.Temperature = math.SmallestNonzeroFloat32
		}
	}

	if len(options.Functions) > 0 {
		tools := make([]openai.Tool, len(options.Functions))
		for i, f := range options.Functions {
			tools[i] = openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        f.Name,
					Description: f.Description,
					Parameters:  f.Parameters,
				},
			}
		}
		req.Tools = tools

		if options.ToolChoice != "" {
			req.ToolChoice = openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: options.ToolChoice,
				},
			}
		} else {
			req.ToolChoice = "auto"
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, handleOpenAIError("Chat", err)
	}

	if len(resp.Choices) == 0 {
		return nil, &llm.LLMError{
			Op:      "Chat",
			Code:    llm.ErrAPIError,
			Message: "no response choices returned",
		}
	}

	choice := resp.Choices[0].Message
	message := &llm.Message{
		Role:    choice.Role,
		Content: choice.Content,
		Name:    choice.Name,
	}
	message.SetUsage(&llm.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	})

	for _, tc := range choice.ToolCalls {
		message.ToolCalls = append(message.ToolCalls, llm.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return message, nil
}

func handleOpenAIError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 400:
			return &llm.LLMError{Op: op, Code: llm.ErrInvalidInput, Message: "invalid request", Err: err}
		case 401:
			return &llm.LLMError{Op: op, Code: llm.ErrUnauthorized, Message: "invalid API key", Err: err}
		case 429:
			return &llm.LLMError{Op: op, Code: llm.ErrRateLimitExceeded, Message: "rate limit exceeded", Err: err}
		case 500, 502, 503:
			return &llm.LLMError{Op: op, Code: llm.ErrModelNotAvailable, Message: "OpenAI server error", Err: err}
		}
	}

	return &llm.LLMError{
		Op:      op,
		Code:    llm.ErrInternal,
		Message: "unexpected error",
		Err:     err,
	}
}
