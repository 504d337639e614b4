// Package llm talks to an OpenAI-compatible chat-completions endpoint. The
// planner depends only on the Client interface so tests can swap in a mock.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"lpcore/internal"
	lperrors "lpcore/internal/errors"
)

// Request is one chat-completion call. System may be empty.
type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Client produces a completion for a request.
type Client interface {
	ChatCompletion(ctx context.Context, req Request) (string, error)
}

// OpenAIClient calls a chat-completions API over HTTP.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *internal.Logger
}

func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        internal.DefaultLogger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", lperrors.ConfigInvalid("LLM API key is not configured")
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", lperrors.Wrap(err, "encoding chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", lperrors.Wrap(err, "building chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.Debug("chat completion request: model=%s prompt=%d bytes", req.Model, len(req.Prompt))
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", lperrors.ExternalServiceError("llm", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", lperrors.ExternalServiceError("llm", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", lperrors.ExternalServiceError("llm",
			fmt.Errorf("unexpected response (status %d): %s", resp.StatusCode, truncate(string(raw), 200)))
	}
	if resp.StatusCode != http.StatusOK {
		detail := truncate(string(raw), 200)
		if parsed.Error != nil {
			detail = parsed.Error.Message
		}
		return "", lperrors.ExternalServiceError("llm",
			fmt.Errorf("status %d: %s", resp.StatusCode, detail))
	}
	if len(parsed.Choices) == 0 {
		return "", lperrors.ExternalServiceError("llm", fmt.Errorf("response has no choices"))
	}

	c.log.Debug("chat completion done in %s", time.Since(start).Round(time.Millisecond))
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// MockClient is a canned Client for tests. It records every request.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     []Request
}

func (m *MockClient) ChatCompletion(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", fmt.Errorf("mock has no responses left")
	}
	resp := m.Responses[0]
	m.Responses = m.Responses[1:]
	return resp, nil
}
