// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memory persists per-paper analyses so repeated research sessions
// skip the fetch/convert/analyze path for papers already seen. Providers
// (SQLite, Redis) implement the Cache interface; the factory resolves the
// provider enum.
// See docs/ARCHITECTURE.md § Memory Cache.
package memory

import (
	"context"
	"fmt"

	"github.com/pdiddy/library-index/pkg/types"
)

// Cache is the memory-cache capability keyed by paper identifier.
// Implementations are safe for concurrent use; a read-then-write race on
// the same id may store an equivalent analysis twice, which is wasteful but
// not incorrect.
type Cache interface {
	// Lookup returns the cached analysis for id, reporting whether one exists.
	Lookup(ctx context.Context, id string) (string, bool, error)

	// Store saves the analysis for id, replacing any previous value.
	Store(ctx context.Context, id, analysis string) error

	// HealthCheck verifies the cache is reachable. A failing check at
	// session start is a permanent collaborator error.
	HealthCheck(ctx context.Context) error

	// Stats returns the number of cached analyses.
	Stats(ctx context.Context) (int64, error)

	// Clear removes all cached analyses.
	Clear(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// New resolves the provider enum to a concrete cache.
func New(ctx context.Context, cfg types.CacheConfig) (Cache, error) {
	switch cfg.Provider {
	case types.CacheSQLite, "":
		return NewSQLiteCache(cfg.Path)
	case types.CacheRedis:
		return NewRedisCache(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown cache provider %q (supported: sqlite, redis)", cfg.Provider)
	}
}
