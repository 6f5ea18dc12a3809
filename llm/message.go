package llm

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Message represents a chat message
type Message struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Name      string                 `json:"name,omitempty"`
	ToolCalls []FunctionCall         `json:"tool_calls,omitempty"` // every tool call of the reply, in order
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// GetUsage returns the usage statistics from the message metadata
func (m *Message) GetUsage() *Usage {
	if m.Metadata == nil {
		return nil
	}
	usage, ok := m.Metadata["usage"].(*Usage)
	if !ok {
		return nil
	}
	return usage
}

// SetUsage sets the usage statistics in the message metadata
func (m *Message) SetUsage(usage *Usage) {
	if usage == nil {
		return
	}

	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata["usage"] = usage
}
