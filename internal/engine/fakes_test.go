// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/library-index/internal/llm"
	"github.com/pdiddy/library-index/pkg/types"
)

// fakeLLM dispatches on the system prompt so one fake can play all three
// model roles in a session.
type fakeLLM struct {
	mu    sync.Mutex
	calls []string
	fn    func(system, user string) (string, error)
}

func (f *fakeLLM) Complete(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
	system, user := "", ""
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "user":
			user = m.Content
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, system)
	f.mu.Unlock()

	if f.fn == nil {
		return "", fmt.Errorf("no response scripted")
	}
	return f.fn(system, user)
}

func (f *fakeLLM) callCount(system string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == system {
			n++
		}
	}
	return n
}

// fakeSearch serves scripted metadata per query string and one document
// for every fetch.
type fakeSearch struct {
	mu      sync.Mutex
	results map[string][]types.PaperMeta
	doc     []byte
	fetches int
	err     error
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) SearchMetadata(_ context.Context, query string, _ int) ([]types.PaperMeta, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeSearch) FetchDocument(_ context.Context, _ types.PaperMeta) ([]byte, error) {
	f.mu.Lock()
	f.fetches++
	f.mu.Unlock()
	if f.doc == nil {
		return nil, fmt.Errorf("no document scripted")
	}
	return f.doc, nil
}

func (f *fakeSearch) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// fakeConverter echoes the raw bytes as text.
type fakeConverter struct{ err error }

func (f *fakeConverter) ToText(_ context.Context, raw []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return string(raw), nil
}

// fakeCache is an in-memory Cache used to observe hit/store traffic.
type fakeCache struct {
	mu        sync.Mutex
	entries   map[string]string
	stores    int
	healthErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Lookup(_ context.Context, id string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[id]
	return v, ok, nil
}

func (f *fakeCache) Store(_ context.Context, id, analysis string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[id] = analysis
	f.stores++
	return nil
}

func (f *fakeCache) HealthCheck(context.Context) error { return f.healthErr }

func (f *fakeCache) Stats(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.entries)), nil
}

func (f *fakeCache) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = map[string]string{}
	return nil
}

func (f *fakeCache) Close() error { return nil }

func (f *fakeCache) storeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stores
}
