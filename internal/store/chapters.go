package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

const chapterColumns = `id, manhwa_id, name, number, seq, created_at`

func (db *DB) ListChapters(ctx context.Context, manhwaID int64) ([]domain.Chapter, error) {
	chapters := []domain.Chapter{}
	err := db.SelectContext(ctx, &chapters,
		`SELECT `+chapterColumns+` FROM chapters WHERE manhwa_id = ? ORDER BY seq ASC`, manhwaID)
	return chapters, err
}

func (db *DB) GetChapter(ctx context.Context, id int64) (*domain.Chapter, error) {
	var c domain.Chapter
	err := db.GetContext(ctx, &c, `SELECT `+chapterColumns+` FROM chapters WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ChapterAtSeq returns domain.ErrNotFound past either end.
func (db *DB) ChapterAtSeq(ctx context.Context, manhwaID int64, seq int) (*domain.Chapter, error) {
	var c domain.Chapter
	err := db.GetContext(ctx, &c,
		`SELECT `+chapterColumns+` FROM chapters WHERE manhwa_id = ? AND seq = ?`, manhwaID, seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
