package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	lperrors "lpcore/internal/errors"
)

func TestChatCompletion(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "こんにちは"}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL+"/v1/", "test-key", 5*time.Second)
	out, err := c.ChatCompletion(context.Background(), Request{
		Model:       "test-model",
		System:      "あなたはアシスタントです",
		Prompt:      "挨拶して",
		MaxTokens:   100,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if out != "こんにちは" {
		t.Errorf("got %q", out)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header: %q", gotAuth)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Errorf("messages: %+v", gotBody.Messages)
	}
	if gotBody.Model != "test-model" || gotBody.MaxTokens != 100 {
		t.Errorf("request body: %+v", gotBody)
	}
}

func TestChatCompletionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "key", 5*time.Second)
	_, err := c.ChatCompletion(context.Background(), Request{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !lperrors.HasCode(err, lperrors.CodeExternalService) {
		t.Errorf("want EXTERNAL_SERVICE error, got %v", err)
	}
}

func TestChatCompletionMissingKey(t *testing.T) {
	c := NewOpenAIClient("http://localhost:1", "", time.Second)
	_, err := c.ChatCompletion(context.Background(), Request{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !lperrors.HasCode(err, lperrors.CodeConfigInvalid) {
		t.Errorf("want CONFIG_INVALID, got %v", err)
	}
}

func TestMockClientSequences(t *testing.T) {
	m := &MockClient{Responses: []string{"first", "second"}}
	ctx := context.Background()
	if out, _ := m.ChatCompletion(ctx, Request{Prompt: "a"}); out != "first" {
		t.Errorf("got %q", out)
	}
	if out, _ := m.ChatCompletion(ctx, Request{Prompt: "b"}); out != "second" {
		t.Errorf("got %q", out)
	}
	if _, err := m.ChatCompletion(ctx, Request{Prompt: "c"}); err == nil {
		t.Error("exhausted mock should error")
	}
	if len(m.Calls) != 3 {
		t.Errorf("calls recorded: %d", len(m.Calls))
	}
}
