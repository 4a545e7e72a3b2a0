package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a fetched page is reused.
const DefaultCacheTTL = 24 * time.Hour

// Cache is a string key-value store. The local history database satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// CachedFetcher wraps URL fetching with a key-value cache of successful responses.
type CachedFetcher struct {
	cache   Cache
	options *Options
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
	FetchedAt time.Time
}

type cacheEntry struct {
	URL         string    `json:"url"`
	HTML        string    `json:"html"`
	ContentType string    `json:"content_type"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// NewCachedFetcher creates a cached fetcher. A nil cache disables caching and a
// non-positive ttl uses DefaultCacheTTL.
func NewCachedFetcher(cache Cache, ttl time.Duration, opts *Options, logger *zap.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{cache: cache, options: opts, ttl: ttl, now: time.Now, logger: logger}
}

// CacheKey returns the cache key for a URL.
func CacheKey(urlStr string) string {
	sum := sha256.Sum256([]byte(urlStr))
	return "page:" + hex.EncodeToString(sum[:])
}

// Fetch returns a fresh cached copy of the page when there is one, and
// downloads it otherwise. Cache failures are logged and never fail the fetch.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	key := CacheKey(urlStr)

	if f.cache != nil {
		if raw, ok, err := f.cache.Get(ctx, key); err != nil {
			f.logger.Warn("page cache read failed", zap.Error(err))
		} else if ok {
			var entry cacheEntry
			if err := json.Unmarshal([]byte(raw), &entry); err == nil && f.now().Sub(entry.FetchedAt) < f.ttl {
				f.logger.Debug("page cache hit", zap.String("url", urlStr))
				return &CachedResult{
					Result: &Result{
						URL:         entry.URL,
						HTML:        entry.HTML,
						ContentType: entry.ContentType,
						StatusCode:  http.StatusOK,
					},
					FromCache: true,
					FetchedAt: entry.FetchedAt,
				}, nil
			}
		}
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}
	fetchedAt := f.now().UTC()

	if f.cache != nil {
		data, _ := json.Marshal(cacheEntry{
			URL:         result.URL,
			HTML:        result.HTML,
			ContentType: result.ContentType,
			FetchedAt:   fetchedAt,
		})
		if err := f.cache.Set(ctx, key, string(data)); err != nil {
			f.logger.Warn("page cache write failed", zap.Error(err))
		}
	}

	return &CachedResult{Result: result, FetchedAt: fetchedAt}, nil
}
