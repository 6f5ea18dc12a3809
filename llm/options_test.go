package llm

import (
	"context"
	"testing"
)

func TestWithTemperatureZeroIsSet(t *testing.T) {
	opts := NewChatOptions(WithTemperature(0))
	if opts.Temperature == nil {
		t.Fatal("temperature should be set")
	}
	if *opts.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", *opts.Temperature)
	}

	if NewChatOptions().Temperature != nil {
		t.Error("temperature should be nil by default")
	}
}

func TestUsageRoundTrip(t *testing.T) {
	var m Message
	if m.GetUsage() != nil {
		t.Error("empty message should have no usage")
	}
	m.SetUsage(&Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	u := m.GetUsage()
	if u == nil || u.TotalTokens != 15 {
		t.Errorf("GetUsage() = %+v", u)
	}
}

type echoLLM struct{ got []Message }

func (e *echoLLM) Chat(_ context.Context, messages []Message, _ ...Option) (*Message, error) {
	e.got = messages
	return &Message{Role: RoleAssistant, Content: "echo: " + messages[0].Content}, nil
}

func TestComplete(t *testing.T) {
	model := &echoLLM{}
	out, err := Complete(context.Background(), model, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "echo: hello" {
		t.Errorf("Complete() = %q", out)
	}
	if len(model.got) != 1 || model.got[0].Role != RoleUser {
		t.Errorf("unexpected messages %+v", model.got)
	}
}
