package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/store"
)

type ReadingService struct {
	Repo   *store.DB
	Logger *logger.Logger
	now    func() time.Time
}

func NewReadingService(repo *store.DB, log *logger.Logger) *ReadingService {
	return &ReadingService{Repo: repo, Logger: log.WithComponent("reading"), now: time.Now}
}

// SetStatus stores the user's reading status for a manhwa.
func (s *ReadingService) SetStatus(ctx context.Context, manhwaID int64, status string) error {
	parsed, err := domain.ParseReadStatus(status)
	if err != nil {
		return err
	}
	if _, err := s.Repo.GetManhwa(ctx, manhwaID); err != nil {
		return fmt.Errorf("manhwa %d: %w", manhwaID, err)
	}
	if err := s.Repo.UpsertReadingStatus(ctx, manhwaID, parsed, s.now()); err != nil {
		return err
	}
	s.Logger.Info("Reading status set", "manhwa_id", manhwaID, "status", parsed)
	return nil
}

func (s *ReadingService) ClearStatus(ctx context.Context, manhwaID int64) error {
	return s.Repo.DeleteReadingStatus(ctx, manhwaID)
}

// RecordRead logs that a chapter was opened and how many images were seen.
// The first read of a manhwa without a status marks it as reading.
func (s *ReadingService) RecordRead(ctx context.Context, manhwaID, chapterID int64, images int) error {
	if images < 0 {
		return fmt.Errorf("images viewed must not be negative, got %d", images)
	}
	chapter, err := s.Repo.GetChapter(ctx, chapterID)
	if err != nil {
		return fmt.Errorf("chapter %d: %w", chapterID, err)
	}
	if chapter.ManhwaID != manhwaID {
		return fmt.Errorf("chapter %d of manhwa %d: %w", chapterID, manhwaID, domain.ErrNotFound)
	}

	now := s.now()
	if err := s.Repo.RecordRead(ctx, manhwaID, chapterID, images, now); err != nil {
		return err
	}

	_, err = s.Repo.GetReadingStatus(ctx, manhwaID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.Repo.UpsertReadingStatus(ctx, manhwaID, domain.ReadStatusReading, now)
	}
	return err
}

// NextChapter returns domain.ErrNotFound on the last chapter.
func (s *ReadingService) NextChapter(ctx context.Context, chapterID int64) (*domain.Chapter, error) {
	return s.step(ctx, chapterID, 1)
}

// PreviousChapter returns domain.ErrNotFound on the first chapter.
func (s *ReadingService) PreviousChapter(ctx context.Context, chapterID int64) (*domain.Chapter, error) {
	return s.step(ctx, chapterID, -1)
}

func (s *ReadingService) step(ctx context.Context, chapterID int64, delta int) (*domain.Chapter, error) {
	current, err := s.Repo.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	seq := current.Seq + delta
	if seq < 0 {
		return nil, domain.ErrNotFound
	}
	return s.Repo.ChapterAtSeq(ctx, current.ManhwaID, seq)
}

func (s *ReadingService) Stats(ctx context.Context) (*domain.ReadingStats, error) {
	return s.Repo.ReadingStats(ctx)
}
