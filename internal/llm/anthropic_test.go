package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatrelay/internal/config"
)

func TestAnthropicClientMapsSystemAndTurns(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"Hello!"}],"stop_reason":"end_turn",
			"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	t.Cleanup(server.Close)

	client := NewAnthropicClient(config.LLMConfig{APIKey: "k", Model: "claude-test", BaseURL: server.URL, MaxTokens: 256}, server.Client())
	answer, err := client.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "Hi"},
		{Role: RoleAssistant, Content: "Hello"},
		{Role: RoleUser, Content: "How are you?"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if answer != "Hello!" {
		t.Fatalf("unexpected answer %q", answer)
	}
	if got.Model != "claude-test" || got.MaxTokens != 256 {
		t.Fatalf("unexpected params %+v", got)
	}
	if len(got.System) != 1 || got.System[0].Text != "be nice" {
		t.Fatalf("expected system prompt moved to system, got %+v", got.System)
	}
	if len(got.Messages) != 3 || got.Messages[1].Role != "assistant" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}
