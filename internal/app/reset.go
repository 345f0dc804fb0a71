package app

import (
	"context"
	"fmt"

	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/store"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

// Syncer runs prepare and the resync under the engine's run lock.
type Syncer interface {
	Reset(ctx context.Context, prepare func(ctx context.Context) error) (*syncer.Report, error)
}

type ImageCache interface {
	ClearCache(ctx context.Context) error
}

// FetchCache is the cache of remote text responses.
type FetchCache interface {
	ClearCache(ctx context.Context) error
}

type ResetService struct {
	Repo    *store.DB
	Sync    Syncer
	Images  ImageCache
	Fetches FetchCache
	Logger  *logger.Logger
}

func NewResetService(repo *store.DB, sync Syncer, images ImageCache, fetches FetchCache, log *logger.Logger) *ResetService {
	return &ResetService{Repo: repo, Sync: sync, Images: images, Fetches: fetches, Logger: log.WithComponent("reset")}
}

// ResetApp wipes the catalog mirror, re-runs migrations and pulls the
// catalog again. A running sync is waited for first. includePrivate also
// drops reading data, texts and cached images. A failed resync leaves the
// store empty but consistent.
func (s *ResetService) ResetApp(ctx context.Context, includePrivate bool) (*syncer.Report, error) {
	s.Logger.Info("Resetting app", "include_private", includePrivate)

	report, err := s.Sync.Reset(ctx, func(ctx context.Context) error {
		return s.wipe(ctx, includePrivate)
	})
	if err != nil {
		return report, fmt.Errorf("reset: %w", err)
	}
	return report, nil
}

func (s *ResetService) wipe(ctx context.Context, includePrivate bool) error {
	if err := s.Repo.ResetAll(ctx, includePrivate); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	if err := s.Repo.InitSchema(ctx); err != nil {
		return err
	}
	// Cached texts may describe the old catalog.
	if s.Fetches != nil {
		if err := s.Fetches.ClearCache(ctx); err != nil {
			return fmt.Errorf("clear fetch cache: %w", err)
		}
	}
	if includePrivate && s.Images != nil {
		if err := s.Images.ClearCache(ctx); err != nil {
			return fmt.Errorf("clear images: %w", err)
		}
	}
	return nil
}
