package groq

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skillbridge/skillbridge/internal/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "[0, 2]"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7}
		}`))
	}))
	defer server.Close()

	c := NewClient("test-key", "llama-3.3-70b-versatile", testLogger(), WithBaseURL(server.URL))
	resp, err := c.Complete(context.Background(), &llm.Request{
		SystemPrompt: "You match people to challenges.",
		Prompt:       "pick indices",
		MaxTokens:    200,
		Temperature:  0.3,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Content != "[0, 2]" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("stop reason = %q, want end_turn", resp.StopReason)
	}
	if resp.Usage.InputTokens != 42 || resp.Usage.OutputTokens != 7 {
		t.Errorf("usage = %+v", resp.Usage)
	}

	if gotReq["model"] != "llama-3.3-70b-versatile" {
		t.Errorf("model = %v", gotReq["model"])
	}
	if gotReq["temperature"] != 0.3 {
		t.Errorf("temperature = %v", gotReq["temperature"])
	}
	if gotReq["max_tokens"] != float64(200) {
		t.Errorf("max_tokens = %v", gotReq["max_tokens"])
	}
	msgs := gotReq["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(msgs))
	}
	if role := msgs[0].(map[string]any)["role"]; role != "system" {
		t.Errorf("first message role = %v", role)
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	}))
	defer server.Close()

	c := NewClient("k", "m", testLogger(), WithBaseURL(server.URL))
	_, err := c.Complete(context.Background(), &llm.Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestCompleteMaxTokensFinish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "truncat"}, "finish_reason": "length"}]}`))
	}))
	defer server.Close()

	c := NewClient("k", "m", testLogger(), WithBaseURL(server.URL))
	resp, err := c.Complete(context.Background(), &llm.Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.StopReason != "max_tokens" {
		t.Errorf("stop reason = %q, want max_tokens", resp.StopReason)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [], "usage": {"prompt_tokens": 1, "completion_tokens": 0}}`))
	}))
	defer server.Close()

	c := NewClient("k", "m", testLogger(), WithBaseURL(server.URL))
	resp, err := c.Complete(context.Background(), &llm.Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "" {
		t.Errorf("content = %q, want empty", resp.Content)
	}
}

func TestWithNameAndDefaultBaseURL(t *testing.T) {
	c := NewClient("k", "m", testLogger())
	if c.Name() != "groq" {
		t.Errorf("default name = %q", c.Name())
	}
	if c.baseURL != "https://api.groq.com/openai" {
		t.Errorf("default base URL = %q", c.baseURL)
	}

	c = NewClient("k", "m", testLogger(), WithName("ollama"))
	if c.Name() != "ollama" {
		t.Errorf("name = %q, want ollama", c.Name())
	}
}
