// Package imagecache downloads cover and page images and keeps them on disk
// under a size budget.
package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cesargomez89/toonshelf/internal/constants"
	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/httpclient"
	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/storage"
)

var (
	ErrNotInitialized = errors.New("image cache not initialized")
	ErrInvalidURL     = errors.New("image url must be absolute http or https")
	ErrImageTooLarge  = errors.New("image exceeds size limit")
)

type Store interface {
	ListImageEntries(ctx context.Context) ([]domain.ImageEntry, error)
	UpsertImageEntry(ctx context.Context, e domain.ImageEntry) error
	TouchImageEntry(ctx context.Context, key string, at time.Time) error
	DeleteImageEntries(ctx context.Context, keys ...string) error
	ClearImageEntries(ctx context.Context) error
}

// Usage is the current footprint of the cache.
type Usage struct {
	Bytes    int64 `json:"bytes"`
	Count    int   `json:"count"`
	MaxBytes int64 `json:"max_bytes"`
}

// Manager owns the images directory. Nothing else may write into it.
type Manager struct {
	imagesDir string
	maxBytes  int64
	maxFile   int64
	client    *httpclient.Client
	logger    *logger.Logger
	now       func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	store   Store
	entries map[string]*domain.ImageEntry
	total   int64
}

func NewManager(cacheDir string, maxBytes int64, client *httpclient.Client, log *logger.Logger) *Manager {
	return &Manager{
		imagesDir: filepath.Join(cacheDir, constants.ImagesDir),
		maxBytes:  maxBytes,
		maxFile:   constants.MaxImageBytes,
		client:    client,
		logger:    log.WithComponent("imagecache"),
		now:       time.Now,
		entries:   make(map[string]*domain.ImageEntry),
	}
}

// Dir returns the directory images are stored under.
func (m *Manager) Dir() string {
	return m.imagesDir
}

// InitDirectory creates the images directory and removes scratch files left
// by interrupted downloads.
func (m *Manager) InitDirectory() error {
	if err := storage.EnsureDir(m.imagesDir); err != nil {
		return fmt.Errorf("create images dir: %w", err)
	}
	return filepath.WalkDir(m.imagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && storage.IsTempFile(d.Name()) {
			return storage.RemoveFile(path)
		}
		return nil
	})
}

// Init loads the accounting rows, drops rows whose files vanished, fixes
// recorded sizes and trims the cache to its budget.
func (m *Manager) Init(ctx context.Context, store Store) error {
	entries, err := store.ListImageEntries(ctx)
	if err != nil {
		return fmt.Errorf("load image entries: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = store
	m.entries = make(map[string]*domain.ImageEntry, len(entries))
	m.total = 0

	var missing []string
	for i := range entries {
		e := entries[i]
		size, err := storage.FileSize(e.Path)
		if err != nil {
			missing = append(missing, e.Key)
			continue
		}
		if size != e.Size {
			e.Size = size
			if err := store.UpsertImageEntry(ctx, e); err != nil {
				return err
			}
		}
		m.entries[e.Key] = &e
		m.total += e.Size
	}

	if len(missing) > 0 {
		m.logger.Info("Dropping image entries without files", "count", len(missing))
		if err := store.DeleteImageEntries(ctx, missing...); err != nil {
			return err
		}
	}

	return m.evictLocked(ctx, "")
}

// ClearCache deletes every cached image and its accounting.
func (m *Manager) ClearCache(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := storage.ClearDir(m.imagesDir); err != nil {
		return fmt.Errorf("clear images dir: %w", err)
	}
	if m.store != nil {
		if err := m.store.ClearImageEntries(ctx); err != nil {
			return err
		}
	}
	m.entries = make(map[string]*domain.ImageEntry)
	m.total = 0
	m.logger.Info("Image cache cleared")
	return nil
}

// Fetch returns the local path of the image at url, downloading it on a
// miss. Concurrent fetches of the same url share one download.
func (m *Manager) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}
	key := storage.ImageKey(rawURL)

	m.mu.Lock()
	if m.store == nil {
		m.mu.Unlock()
		return "", ErrNotInitialized
	}
	if path, ok := m.hitLocked(ctx, key); ok {
		m.mu.Unlock()
		return path, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		return m.download(ctx, key, rawURL)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) hitLocked(ctx context.Context, key string) (string, bool) {
	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if _, err := os.Stat(e.Path); err != nil {
		m.total -= e.Size
		delete(m.entries, key)
		_ = m.store.DeleteImageEntries(ctx, key)
		return "", false
	}
	now := m.now()
	e.LastAccess = domain.NewTimestamp(now)
	if err := m.store.TouchImageEntry(ctx, key, now); err != nil {
		m.logger.Warn("Failed to touch image entry", "key", key, "error", err)
	}
	return e.Path, true
}

// download runs without the lock so slow networks don't block hits.
func (m *Manager) download(ctx context.Context, key, rawURL string) (string, error) {
	resp, err := m.client.Get(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download image: %s", resp.Status)
	}
	if m.maxFile > 0 && resp.ContentLength > m.maxFile {
		return "", fmt.Errorf("%w: %d bytes", ErrImageTooLarge, resp.ContentLength)
	}

	var body io.Reader = resp.Body
	if m.maxFile > 0 {
		body = io.LimitReader(resp.Body, m.maxFile+1)
	}

	path := storage.ImagePath(m.imagesDir, key)
	size, err := storage.WriteAtomic(path, storage.TempPath(path), body)
	if err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	if m.maxFile > 0 && size > m.maxFile {
		_ = storage.RemoveFile(path)
		return "", fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, m.maxFile)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &domain.ImageEntry{Key: key, Path: path, Size: size, LastAccess: domain.NewTimestamp(m.now())}
	if old, ok := m.entries[key]; ok {
		m.total -= old.Size
	}
	if err := m.store.UpsertImageEntry(ctx, *entry); err != nil {
		return "", err
	}
	m.entries[key] = entry
	m.total += size

	m.logger.Debug("Image cached", "key", key, "size", size)
	if err := m.evictLocked(ctx, key); err != nil {
		return "", err
	}
	return path, nil
}

// evictLocked removes least recently accessed images until the cache fits
// its budget. keep is never evicted so a fresh download survives even when
// it alone exceeds the budget.
func (m *Manager) evictLocked(ctx context.Context, keep string) error {
	if m.maxBytes <= 0 || m.total <= m.maxBytes {
		return nil
	}

	victims := make([]*domain.ImageEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Key != keep {
			victims = append(victims, e)
		}
	}
	sort.Slice(victims, func(i, j int) bool {
		a, b := victims[i].LastAccess.Time, victims[j].LastAccess.Time
		if a.Equal(b) {
			return victims[i].Key < victims[j].Key
		}
		return a.Before(b)
	})

	var evicted []string
	var freed int64
	for _, e := range victims {
		if m.total <= m.maxBytes {
			break
		}
		if err := storage.RemoveFile(e.Path); err != nil {
			return fmt.Errorf("evict %s: %w", e.Key, err)
		}
		delete(m.entries, e.Key)
		m.total -= e.Size
		freed += e.Size
		evicted = append(evicted, e.Key)
	}

	if len(evicted) == 0 {
		return nil
	}
	m.logger.Info("Evicted cached images", "count", len(evicted), "freed_bytes", freed)
	return m.store.DeleteImageEntries(ctx, evicted...)
}

// Usage reports the cache footprint.
func (m *Manager) Usage() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Usage{Bytes: m.total, Count: len(m.entries), MaxBytes: m.maxBytes}
}
