package catalog

import (
	"context"
	"time"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

type Cache interface {
	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error
	ClearCache(ctx context.Context) error
}

// CachedClient keeps text blobs in the fetch cache. Entity pages and the
// version token always go to the remote so sync sees fresh data.
type CachedClient struct {
	client   Client
	cache    Cache
	cacheTTL time.Duration
}

func NewCachedClient(client Client, cache Cache, cacheTTL time.Duration) *CachedClient {
	return &CachedClient{
		client:   client,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (c *CachedClient) FetchEntities(ctx context.Context, kind domain.EntityKind, cursor string) (*Page, error) {
	return c.client.FetchEntities(ctx, kind, cursor)
}

func (c *CachedClient) FetchVersion(ctx context.Context) (*VersionInfo, error) {
	return c.client.FetchVersion(ctx)
}

func (c *CachedClient) FetchText(ctx context.Context, key string) (string, error) {
	cacheKey := "text:" + key

	data, err := c.cache.GetCache(ctx, cacheKey)
	if err != nil {
		return "", err
	}
	if data != nil {
		return string(data), nil
	}

	body, err := c.client.FetchText(ctx, key)
	if err != nil {
		return "", err
	}

	_ = c.cache.SetCache(ctx, cacheKey, []byte(body), c.cacheTTL)
	return body, nil
}

func (c *CachedClient) ClearCache(ctx context.Context) error {
	return c.cache.ClearCache(ctx)
}

var _ Client = (*CachedClient)(nil)
