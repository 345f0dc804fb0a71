package catalog

import (
	"context"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

// Page is one batch of remote rows. An empty NextCursor means the kind is
// exhausted.
type Page struct {
	domain.Batch
	NextCursor string
}

// VersionInfo is the remote catalog's current version token and the image
// cache epoch it declares.
type VersionInfo struct {
	Version    int64 `json:"version"`
	CacheEpoch int64 `json:"cache_epoch"`
}

type Client interface {
	FetchEntities(ctx context.Context, kind domain.EntityKind, cursor string) (*Page, error)
	FetchVersion(ctx context.Context) (*VersionInfo, error)
	FetchText(ctx context.Context, key string) (string, error)
}
