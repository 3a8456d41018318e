package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/cache"
)

// DefaultPageTTL is how long a fetched posting is reused.
const DefaultPageTTL = 6 * time.Hour

// Page is the cached form of a fetched job posting.
type Page struct {
	URL        string   `json:"url"`
	Text       string   `json:"text"`
	Platform   Platform `json:"platform"`
	StatusCode int      `json:"statusCode"`
}

// CachedFetcher wraps JobPosting with a TTL cache keyed by URL.
// Failed fetches are never cached.
type CachedFetcher struct {
	pages   *cache.TTLCache[Page]
	options *Options
	logger  *zap.Logger
	fetch   func(ctx context.Context, urlStr string, opts *Options) (*Result, error)
}

// NewCachedFetcher creates a cached fetcher. A zero ttl uses DefaultPageTTL.
func NewCachedFetcher(ttl time.Duration, opts *Options, logger *zap.Logger, cacheOpts ...cache.Option) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{
		pages:   cache.New[Page]("job_pages", ttl, cacheOpts...),
		options: opts,
		logger:  logger,
		fetch:   JobPosting,
	}
}

// CachedResult extends Page with cache metadata.
type CachedResult struct {
	Page
	FromCache bool
}

// Fetch returns the posting text for urlStr, from cache when fresh.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	key := cache.Key("page", urlStr)
	if page, ok := f.pages.Get(ctx, key); ok {
		f.logger.Debug("job posting served from cache", zap.String("url", urlStr))
		return &CachedResult{Page: page, FromCache: true}, nil
	}

	result, err := f.fetch(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	page := Page{
		URL:        urlStr,
		Text:       result.Text,
		Platform:   DetectPlatform(urlStr),
		StatusCode: result.StatusCode,
	}
	f.pages.Set(ctx, key, page)
	f.logger.Debug("job posting fetched",
		zap.String("url", urlStr),
		zap.String("platform", string(page.Platform)),
		zap.Int("chars", len(page.Text)))
	return &CachedResult{Page: page}, nil
}

// Invalidate drops urlStr from the in-memory tier.
func (f *CachedFetcher) Invalidate(urlStr string) {
	f.pages.Delete(cache.Key("page", urlStr))
}
