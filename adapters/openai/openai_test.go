package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/papernotes/embedding"
	"github.com/Abraxas-365/papernotes/llm"
	"github.com/sashabaranov/go-openai"
)

func newTestConfig(t *testing.T, handler http.HandlerFunc) openai.ClientConfig {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return cfg
}

func TestOpenAILLM_ChatReturnsAllToolCalls(t *testing.T) {
	var got map[string]any
	cfg := newTestConfig(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4-1106-preview",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [
						{"id": "call_1", "type": "function", "function": {"name": "formatNotes", "arguments": "{\"notes\":[]}"}},
						{"id": "call_2", "type": "function", "function": {"name": "formatNotes", "arguments": "{\"notes\":[{\"note\":\"x\",\"pageNumbers\":[1]}]}"}}
					]
				}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 30, "total_tokens": 42}
		}`))
	})

	model := NewOpenAILLMWithConfig(cfg, "")
	msg, err := model.Chat(context.Background(),
		[]llm.Message{{Role: llm.RoleSystem, Content: "rules"}, {Role: llm.RoleUser, Content: "Paper: x"}},
		llm.WithTemperature(0),
		llm.WithFunctions([]llm.Function{{Name: "formatNotes", Parameters: map[string]any{"type": "object"}}}),
		llm.WithToolChoice("formatNotes"),
	)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if len(msg.ToolCalls) != 2 {
		t.Fatalf("ToolCalls = %d, want 2", len(msg.ToolCalls))
	}
	if msg.ToolCalls[1].ID != "call_2" || msg.ToolCalls[1].Name != "formatNotes" {
		t.Errorf("second tool call = %+v", msg.ToolCalls[1])
	}
	if u := msg.GetUsage(); u == nil || u.TotalTokens != 42 {
		t.Errorf("usage = %+v", u)
	}

	if got["model"] != DefaultChatModel {
		t.Errorf("model = %v, want %v", got["model"], DefaultChatModel)
	}
	temp, ok := got["temperature"].(float64)
	if !ok || temp <= 0 || temp > 1e-30 {
		t.Errorf("temperature = %v, want a value that rounds to zero", got["temperature"])
	}
	choice, _ := got["tool_choice"].(map[string]any)
	fn, _ := choice["function"].(map[string]any)
	if fn["name"] != "formatNotes" {
		t.Errorf("tool_choice = %v", got["tool_choice"])
	}
	tools, _ := got["tools"].([]any)
	if len(tools) != 1 {
		t.Errorf("tools = %v", got["tools"])
	}
}

func TestOpenAILLM_ErrorMapping(t *testing.T) {
	cfg := newTestConfig(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit"}}`))
	})

	_, err := NewOpenAILLMWithConfig(cfg, "gpt-4o").Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	var le *llm.LLMError
	if !errors.As(err, &le) {
		t.Fatalf("expected LLMError, got %v", err)
	}
	if le.Code != llm.ErrRateLimitExceeded {
		t.Errorf("code = %s", le.Code)
	}
}

func TestOpenAIEmbedder_EmbedDocumentsInBatches(t *testing.T) {
	calls := 0
	cfg := newTestConfig(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Object string `json:"object"`
			Data   []item `json:"data"`
			Model  string `json:"model"`
		}{Object: "list", Model: "text-embedding-ada-002"}
		// reversed order to check that Index is honoured
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, item{Object: "embedding", Embedding: []float32{float32(len(req.Input[i])), 0}, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	e := NewOpenAIEmbedderWithConfig(cfg, embedding.WithBatchSize(2), embedding.WithTruncation(false))
	vectors, err := e.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 batches", calls)
	}
	if len(vectors) != 3 {
		t.Fatalf("vectors = %d", len(vectors))
	}
	for i, want := range []float32{1, 2, 3} {
		if vectors[i][0] != want {
			t.Errorf("vector %d = %v, want first component %v", i, vectors[i], want)
		}
	}

	if _, err := e.EmbedDocuments(context.Background(), nil); err == nil {
		t.Error("expected error for empty input")
	}
}
