package search

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/ideacritic/ideacritic/internal/domain/market"
)

// CachedSearcher wraps a Searcher with a query-keyed cache. Cache
// failures fall through to the backend; cache writes are best effort.
type CachedSearcher struct {
	Backend market.Searcher
	Cache   market.Cache
	Log     *zap.Logger
}

func NewCachedSearcher(backend market.Searcher, cache market.Cache, log *zap.Logger) *CachedSearcher {
	return &CachedSearcher{Backend: backend, Cache: cache, Log: log}
}

func (c *CachedSearcher) Search(ctx context.Context, query string, maxResults int) ([]market.Snippet, error) {
	if cached, ok, err := c.Cache.Get(ctx, query); err != nil {
		c.logger().Warn("market cache read failed", zap.Error(err))
	} else if ok {
		var snippets []market.Snippet
		if err := json.Unmarshal([]byte(cached), &snippets); err == nil {
			return snippets, nil
		}
		c.logger().Warn("market cache entry corrupt, refetching", zap.String("query", query))
	}

	snippets, err := c.Backend.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(snippets); err == nil {
		if err := c.Cache.Set(ctx, query, string(encoded)); err != nil {
			c.logger().Warn("market cache write failed", zap.Error(err))
		}
	}
	return snippets, nil
}

func (c *CachedSearcher) logger() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.NewNop()
}
