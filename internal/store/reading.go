package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

func (db *DB) UpsertReadingStatus(ctx context.Context, manhwaID int64, status domain.ReadStatus, at time.Time) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO reading_status (manhwa_id, status, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(manhwa_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
	`, manhwaID, status, at.UnixMilli())
	return err
}

func (db *DB) DeleteReadingStatus(ctx context.Context, manhwaID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM reading_status WHERE manhwa_id = ?`, manhwaID)
	return err
}

func (db *DB) GetReadingStatus(ctx context.Context, manhwaID int64) (*domain.ReadingStatus, error) {
	var rs domain.ReadingStatus
	err := db.GetContext(ctx, &rs,
		`SELECT manhwa_id, status, updated_at FROM reading_status WHERE manhwa_id = ?`, manhwaID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// RecordRead marks a chapter as read. Re-reading bumps read_at and adds to
// the images counter.
func (db *DB) RecordRead(ctx context.Context, manhwaID, chapterID int64, images int, at time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO reading_history (manhwa_id, chapter_id, read_at, images_viewed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(manhwa_id, chapter_id) DO UPDATE SET
			read_at = excluded.read_at,
			images_viewed = reading_history.images_viewed + excluded.images_viewed
	`, manhwaID, chapterID, at.UnixMilli(), images)
	return err
}

func (db *DB) GetHistoryEntry(ctx context.Context, manhwaID, chapterID int64) (*domain.HistoryEntry, error) {
	var h domain.HistoryEntry
	err := db.GetContext(ctx, &h, `
		SELECT manhwa_id, chapter_id, read_at, images_viewed FROM reading_history
		WHERE manhwa_id = ? AND chapter_id = ?`, manhwaID, chapterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHistory returns one row per manhwa: the chapter read most recently.
// History for manhwas no longer in the catalog is skipped.
func (db *DB) ListHistory(ctx context.Context, offset, limit int) ([]domain.HistoryItem, error) {
	items := []domain.HistoryItem{}
	err := db.SelectContext(ctx, &items, `
		WITH latest AS (
			SELECT manhwa_id, chapter_id, read_at,
				ROW_NUMBER() OVER (PARTITION BY manhwa_id ORDER BY read_at DESC, chapter_id DESC) AS rn
			FROM reading_history
		)
		SELECT `+manhwaColumns+`, l.chapter_id, COALESCE(c.name, '') AS chapter_name, l.read_at
		FROM latest l
		JOIN manhwas m ON m.id = l.manhwa_id
		LEFT JOIN chapters c ON c.id = l.chapter_id
		WHERE l.rn = 1
		ORDER BY l.read_at DESC, m.id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	return items, err
}

func (db *DB) ReadingStats(ctx context.Context) (*domain.ReadingStats, error) {
	var stats domain.ReadingStats
	err := db.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS chapters_read,
			COALESCE(SUM(images_viewed), 0) AS images_viewed,
			COUNT(DISTINCT manhwa_id) AS manhwas_started
		FROM reading_history`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
