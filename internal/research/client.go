// Package research implements the platform's outward-facing collaborators:
// LLM-backed research, extraction and analysis against the OpenAI API, and
// filing retrieval from EDGAR.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// ChatConfig configures the OpenAI chat client.
type ChatConfig struct {
	APIKey  string
	BaseURL string // defaults to the public OpenAI endpoint
	Model   string
	Timeout time.Duration
}

// ChatClient is a thin chat-completions client. All LLM collaborators in
// this package share one instance.
type ChatClient struct {
	http  *resty.Client
	model string
}

// NewChatClient builds a client with retry on rate limits and server
// errors.
func NewChatClient(cfg ChatConfig) *ChatClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r.StatusCode() == 429 || (r.StatusCode() >= 500 && r.StatusCode() <= 504)
		})

	return &ChatClient{http: http, model: cfg.Model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one system+user exchange and returns the assistant text.
// jsonMode forces a JSON object response.
func (c *ChatClient) Complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if !resp.IsSuccess() {
		if parsed.Error != nil {
			return "", fmt.Errorf("chat completion: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("chat completion: status %d", resp.StatusCode())
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return parsed.Choices[0].Message.Content, nil
}
