package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newChatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func chatCompletionBody(content string) string {
	resp := map[string]any{
		"id":    "gen-123",
		"model": "openai/gpt-4o-mini",
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     100,
			"completion_tokens": 50,
			"total_tokens":      150,
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestOpenRouterChat(t *testing.T) {
	var gotAuth string
	var gotBody openRouterRequest

	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody("Bonjour")))
	})

	client := NewOpenRouterClient(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "Vous êtes un assistant."},
			{Role: "user", Content: "Qu'est-ce qu'un transistor ?"},
		},
		Model:       "openai/gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   3000,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if !result.Success {
		t.Error("expected success")
	}
	if result.Content != "Bonjour" {
		t.Errorf("expected content Bonjour, got %q", result.Content)
	}
	if result.TotalTokens != 150 {
		t.Errorf("expected 150 total tokens, got %d", result.TotalTokens)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected Authorization header, got %q", gotAuth)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Errorf("unexpected messages in request: %+v", gotBody.Messages)
	}
	if gotBody.MaxTokens != 3000 {
		t.Errorf("expected max_tokens 3000, got %d", gotBody.MaxTokens)
	}
}

func TestOpenRouterRetryOn429(t *testing.T) {
	var calls atomic.Int64

	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody("ok")))
	})

	client := NewOpenRouterClient(OpenRouterConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		RetryDelay: time.Millisecond,
	})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Chat failed after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
	if result.Attempts != 2 {
		t.Errorf("expected 2 attempts recorded, got %d", result.Attempts)
	}
}

func TestOpenRouterNoRetryOn400(t *testing.T) {
	var calls atomic.Int64

	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad request"}}`))
	})

	client := NewOpenRouterClient(OpenRouterConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		RetryDelay: time.Millisecond,
	})

	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("expected status 400 in error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("400 should not be retried, got %d calls", calls.Load())
	}
}

func TestOpenRouterMaxRetriesExceeded(t *testing.T) {
	var calls atomic.Int64

	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"upstream down"}}`))
	})

	client := NewOpenRouterClient(OpenRouterConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})

	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !strings.Contains(err.Error(), "max retries") {
		t.Errorf("expected max retries error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestOpenRouterStructuredOutputParsed(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody(`{"cours":{"Titre du cours":"Les transistors"}}`)))
	})

	client := NewOpenRouterClient(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "génère"}},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(result.ParsedJSON) == 0 {
		t.Error("expected ParsedJSON to be set for structured output")
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder()

	a, err := e.Embed(context.Background(), []string{"transistor", "diode"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, err := e.Embed(context.Background(), []string{"transistor", "diode"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(a) != 2 || len(a[0]) != e.Dimensions() {
		t.Fatalf("unexpected shape: %d vectors of width %d", len(a), len(a[0]))
	}
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("vectors are not deterministic at [%d][%d]", i, j)
			}
		}
	}
}
