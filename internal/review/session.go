package review

import (
	"context"
	"fmt"
	"time"

	"github.com/newhook/swereview/internal/cachemanager"
	"github.com/newhook/swereview/internal/logging"
)

// Session pairs an analysis result with a cache of search results so that an
// interactive host can repeat queries cheaply.
type Session struct {
	Result *Result
	Digest string

	cache cachemanager.CacheManager[string, SearchResults]
	ttl   time.Duration
}

// NewSession creates a session. digest identifies the analysed inputs and
// scopes the cache keys; a zero ttl uses cachemanager.DefaultExpiration.
func NewSession(result *Result, digest string, cache cachemanager.CacheManager[string, SearchResults], ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = cachemanager.DefaultExpiration
	}
	if cache == nil {
		cache = cachemanager.NewInMemoryCacheManager[string, SearchResults]("search", ttl, cachemanager.DefaultCleanupInterval)
	}
	return &Session{Result: result, Digest: digest, cache: cache, ttl: ttl}
}

func (s *Session) key(name string, contextLines int) string {
	return fmt.Sprintf("%s|%d|%s", s.Digest, contextLines, name)
}

// Search returns cached results when present and otherwise queries the result.
// A negative contextLines uses the analysis default and shares its cache entry.
func (s *Session) Search(ctx context.Context, name string, contextLines int) SearchResults {
	if contextLines < 0 {
		contextLines = s.Result.contextLines
	}
	if name == "" {
		return s.Result.Search(name, contextLines)
	}
	key := s.key(name, contextLines)
	if res, ok := s.cache.GetWithRefresh(ctx, key, s.ttl); ok {
		logging.Debug("search cache hit", "test", name)
		return res
	}
	res := s.Result.Search(name, contextLines)
	s.cache.Set(ctx, key, res, s.ttl)
	return res
}

// Invalidate drops every cached query, e.g. after the inputs changed.
func (s *Session) Invalidate(ctx context.Context) error {
	if err := s.cache.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush search cache: %w", err)
	}
	return nil
}
