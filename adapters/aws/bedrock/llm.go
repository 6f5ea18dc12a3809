package bedrock

import (
	"context"
	"errors"

	"github.com/Abraxas-365/papernotes/llm"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// LLMModelID represents available Bedrock models
type LLMModelID string

const (
	Claude3Sonnet  LLMModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	Claude3Haiku   LLMModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	Claude35Sonnet LLMModelID = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	MistralLarge   LLMModelID = "mistral.mistral-large-2402-v1:0"
)

const defaultMaxTokens = 4096

// ConverseAPI is the part of the Bedrock runtime client the LLM needs
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type BedrockLLM struct {
	client ConverseAPI
	model  LLMModelID
}

func NewBedrockLLM(client ConverseAPI, model LLMModelID) *BedrockLLM {
	if model == "" {
		model = Claude3Sonnet
	}
	return &BedrockLLM{
		client: client,
		model:  model,
	}
}

// convertMessages splits system prompts out and maps the rest onto the two
// conversation roles Converse accepts.
func convertMessages(messages []llm.Message) ([]types.SystemContentBlock, []types.Message) {
	var system []types.SystemContentBlock
	var out []types.Message

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			system = append(system, &types.SystemContentBlockMemberText{Value: msg.Content})
			continue
		}

		role := types.ConversationRoleUser
		if msg.Role == llm.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		out = append(out, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: msg.Content}},
		})
	}

	return system, out
}

func toolConfig(options *llm.ChatOptions) *types.ToolConfiguration {
	if len(options.Functions) == 0 {
		return nil
	}

	tools := make([]types.Tool, len(options.Functions))
	for i, f := range options.Functions {
		tools[i] = &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(f.Name),
				Description: aws.String(f.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(f.Parameters),
				},
			},
		}
	}

	cfg := &types.ToolConfiguration{Tools: tools}
	if options.ToolChoice != "" {
		cfg.ToolChoice = &types.ToolChoiceMemberTool{
			Value: types.SpecificToolChoice{Name: aws.String(options.ToolChoice)},
		}
	}
	return cfg
}

func (b *BedrockLLM) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Message, error) {
	options := llm.NewChatOptions(opts...)

	system, msgs := convertMessages(messages)

	maxTokens := int32(defaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int32(options.MaxTokens)
	}
	inference := &types.InferenceConfiguration{
		MaxTokens:     aws.Int32(maxTokens),
		Temperature:   options.Temperature,
		StopSequences: options.Stop,
	}
	if options.TopP > 0 {
		inference.TopP = aws.Float32(options.TopP)
	}

	output, err := b.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(string(b.model)),
		Messages:        msgs,
		System:          system,
		InferenceConfig: inference,
		ToolConfig:      toolConfig(options),
	})
	if err != nil {
		return nil, handleBedrockError("Chat", err)
	}

	reply, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, &llm.LLMError{
			Op:      "Chat",
			Code:    llm.ErrAPIError,
			Message: "no message in response",
		}
	}

	message := &llm.Message{Role: llm.RoleAssistant}
	for _, block := range reply.Value.Content {
		switch v := block.(type) {
		case *types.ContentBlockMemberText:
			message.Content += v.Value
		case *types.ContentBlockMemberToolUse:
			args, err := v.Value.Input.MarshalSmithyDocument()
			if err != nil {
				return nil, &llm.LLMError{
					Op:      "Chat",
					Code:    llm.ErrAPIError,
					Message: "failed to read tool input",
					Err:     err,
				}
			}
			message.ToolCalls = append(message.ToolCalls, llm.FunctionCall{
				ID:        aws.ToString(v.Value.ToolUseId),
				Name:      aws.ToString(v.Value.Name),
				Arguments: string(args),
			})
		}
	}

	if u := output.Usage; u != nil {
		message.SetUsage(&llm.Usage{
			PromptTokens:     int(aws.ToInt32(u.InputTokens)),
			CompletionTokens: int(aws.ToInt32(u.OutputTokens)),
			TotalTokens:      int(aws.ToInt32(u.TotalTokens)),
		})
	}

	return message, nil
}

func handleBedrockError(op string, err error) error {
	if err == nil {
		return nil
	}

	var throttling *types.ThrottlingException
	var denied *types.AccessDeniedException
	var invalid *types.ValidationException
	var notFound *types.ResourceNotFoundException
	var notReady *types.ModelNotReadyException

	switch {
	case errors.As(err, &throttling):
		return &llm.LLMError{Op: op, Code: llm.ErrRateLimitExceeded, Message: "rate limit exceeded", Err: err}
	case errors.As(err, &denied):
		return &llm.LLMError{Op: op, Code: llm.ErrUnauthorized, Message: "access denied", Err: err}
	case errors.As(err, &invalid):
		return &llm.LLMError{Op: op, Code: llm.ErrInvalidInput, Message: "invalid request", Err: err}
	case errors.As(err, &notFound), errors.As(err, &notReady):
		return &llm.LLMError{Op: op, Code: llm.ErrModelNotAvailable, Message: "model not available", Err: err}
	}

	return &llm.LLMError{
		Op:      op,
		Code:    llm.ErrInternal,
		Message: "Bedrock API error",
		Err:     err,
	}
}
