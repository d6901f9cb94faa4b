// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic indexes for paper metadata and fetches
// full-text documents. Each provider (arXiv, OpenAlex) implements the
// Client interface; the factory resolves the provider enum.
// See docs/ARCHITECTURE.md § Academic Search.
package search

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pdiddy/library-index/pkg/types"
)

// Client is the academic-search capability: metadata queries against an
// index, and document retrieval for one result.
type Client interface {
	// Name returns the provider identifier.
	Name() string

	// SearchMetadata runs one query string against the index and returns
	// up to max results.
	SearchMetadata(ctx context.Context, query string, max int) ([]types.PaperMeta, error)

	// FetchDocument downloads the full-text document for meta.
	FetchDocument(ctx context.Context, meta types.PaperMeta) ([]byte, error)
}

// New resolves the provider enum to a concrete client. All calls through
// the returned client share one min-interval rate limiter; the indexes
// meter by client, not by goroutine.
func New(cfg types.SearchConfig) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	limiter := NewRateLimiter(cfg.MinInterval)

	switch cfg.Provider {
	case types.SearchArxiv, "":
		return &ArxivClient{client: httpClient, cfg: cfg, limiter: limiter}, nil
	case types.SearchOpenAlex:
		return &OpenAlexClient{client: httpClient, cfg: cfg, limiter: limiter}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q (supported: arxiv, openalex)", cfg.Provider)
	}
}

// RateLimiter enforces a minimum interval between calls to an external
// index. It is shared by every goroutine using the same client.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewRateLimiter returns a limiter with the given minimum spacing.
// A non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Wait blocks until at least the configured interval has passed since the
// previous call, or until ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.interval <= 0 {
		return nil
	}

	r.mu.Lock()
	now := time.Now()
	next := r.last.Add(r.interval)
	if next.Before(now) {
		next = now
	}
	r.last = next
	r.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
