// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides language-model clients behind one capability
// interface. Supported providers (DeepSeek, Qwen) both speak the
// OpenAI-compatible chat-completions protocol; the factory resolves the
// provider enum to a concrete client.
// See docs/ARCHITECTURE.md § Language Models.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/library-index/pkg/types"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes a single completion call. Zero values mean provider
// defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client is the language-model capability: one completion call over a
// message sequence. Implementations must distinguish permanent failures
// (wrap ErrPermanent) from transient ones so the engine can decide between
// retrying a unit and failing the session.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// ErrPermanent marks failures that retrying cannot fix: rejected
// credentials, unknown models, malformed requests. Callers test with
// errors.Is.
var ErrPermanent = errors.New("permanent language-model failure")

// IsPermanent reports whether err is a permanent language-model failure.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// New resolves the provider enum to a concrete client.
func New(cfg types.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case types.LLMDeepSeek:
		return newOpenAICompatible(cfg, deepseekBaseURL, deepseekEndpoint), nil
	case types.LLMQwen:
		return newOpenAICompatible(cfg, qwenBaseURL, qwenEndpoint), nil
	default:
		return nil, fmt.Errorf("unknown language-model provider %q (supported: deepseek, qwen)", cfg.Provider)
	}
}

// System and User build messages with the respective roles.
func System(content string) Message { return Message{Role: "system", Content: content} }
func User(content string) Message   { return Message{Role: "user", Content: content} }
