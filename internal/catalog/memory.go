package catalog

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

// MemoryClient serves a fixed dataset from memory. Cursors are row offsets.
// It backs tests and the demo seed.
type MemoryClient struct {
	mu         sync.Mutex
	data       map[domain.EntityKind]*domain.Batch
	texts      map[string]string
	version    int64
	cacheEpoch int64
	pageSize   int

	// FailOn makes FetchEntities for a kind return the error.
	FailOn map[domain.EntityKind]error
	// VersionErr makes FetchVersion fail.
	VersionErr error

	fetches map[domain.EntityKind]int
}

func NewMemoryClient(pageSize int) *MemoryClient {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &MemoryClient{
		data:     make(map[domain.EntityKind]*domain.Batch),
		texts:    make(map[string]string),
		pageSize: pageSize,
		FailOn:   make(map[domain.EntityKind]error),
		fetches:  make(map[domain.EntityKind]int),
	}
}

// Put replaces the rows served for the batch's kind.
func (m *MemoryClient) Put(batch domain.Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := batch
	m.data[batch.Kind] = &b
}

func (m *MemoryClient) SetVersion(version, cacheEpoch int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version = version
	m.cacheEpoch = cacheEpoch
}

func (m *MemoryClient) SetText(key, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[key] = body
}

// Fetches reports how many pages of kind were requested.
func (m *MemoryClient) Fetches(kind domain.EntityKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[kind]
}

func (m *MemoryClient) FetchEntities(ctx context.Context, kind domain.EntityKind, cursor string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntityKind, kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[kind]++

	if err := m.FailOn[kind]; err != nil {
		return nil, err
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid cursor %q", cursor)
		}
		offset = n
	}

	page := &Page{Batch: domain.Batch{Kind: kind}}
	src, ok := m.data[kind]
	if !ok {
		return page, nil
	}
	total := src.Len()
	end := offset + m.pageSize
	if end > total {
		end = total
	}
	if offset < total {
		slicePage(&page.Batch, src, offset, end)
	}
	if end < total {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (m *MemoryClient) FetchVersion(ctx context.Context) (*VersionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VersionErr != nil {
		return nil, m.VersionErr
	}
	return &VersionInfo{Version: m.version, CacheEpoch: m.cacheEpoch}, nil
}

func (m *MemoryClient) FetchText(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.texts[key]
	if !ok {
		return "", fmt.Errorf("%w: text %q", domain.ErrNotFound, key)
	}
	return body, nil
}

func slicePage(dst, src *domain.Batch, from, to int) {
	switch src.Kind {
	case domain.KindGenres:
		dst.Genres = append(dst.Genres, src.Genres[from:to]...)
	case domain.KindAuthors:
		dst.Authors = append(dst.Authors, src.Authors[from:to]...)
	case domain.KindManhwas:
		dst.Manhwas = append(dst.Manhwas, src.Manhwas[from:to]...)
	case domain.KindManhwaGenres:
		dst.ManhwaGenres = append(dst.ManhwaGenres, src.ManhwaGenres[from:to]...)
	case domain.KindManhwaAuthors:
		dst.ManhwaAuthors = append(dst.ManhwaAuthors, src.ManhwaAuthors[from:to]...)
	case domain.KindChapters:
		dst.Chapters = append(dst.Chapters, src.Chapters[from:to]...)
	case domain.KindCollections:
		dst.Collections = append(dst.Collections, src.Collections[from:to]...)
	case domain.KindCollectionItems:
		dst.CollectionItems = append(dst.CollectionItems, src.CollectionItems[from:to]...)
	case domain.KindSourceLinks:
		dst.SourceLinks = append(dst.SourceLinks, src.SourceLinks[from:to]...)
	}
}

var _ Client = (*MemoryClient)(nil)
