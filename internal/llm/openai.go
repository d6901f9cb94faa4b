// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/library-index/internal/httputil"
	"github.com/pdiddy/library-index/pkg/types"
)

const (
	deepseekBaseURL  = "https://api.deepseek.com"
	deepseekEndpoint = "/chat/completions"

	qwenBaseURL  = "https://dashscope.aliyuncs.com"
	qwenEndpoint = "/compatible-mode/v1/chat/completions"
)

// openAICompatible calls any endpoint that speaks the OpenAI
// chat-completions protocol. DeepSeek and Qwen differ only in base URL.
type openAICompatible struct {
	client   *http.Client
	endpoint string
	model    string
	apiKey   string
	retries  int
}

func newOpenAICompatible(cfg types.LLMConfig, defaultBase, path string) *openAICompatible {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBase
	}
	return &openAICompatible{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: strings.TrimRight(base, "/") + path,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		retries:  cfg.MaxRetries,
	}
}

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// chatResponse is the subset of the response body we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one chat-completion request. Transport errors and
// still-failing-after-retry 429/5xx responses are transient; 4xx responses
// are permanent (bad key, unknown model, malformed request).
func (c *openAICompatible) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	resp, err := httputil.PostJSON(ctx, c.client, c.endpoint, body, headers, c.retries)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: HTTP %d: %s", ErrPermanent, resp.StatusCode, strings.TrimSpace(string(detail)))
		}
		return "", fmt.Errorf("completion returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parsing completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
