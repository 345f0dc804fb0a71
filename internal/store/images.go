package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

// ListImageEntries returns the cache accounting, least recently used first.
func (db *DB) ListImageEntries(ctx context.Context) ([]domain.ImageEntry, error) {
	entries := []domain.ImageEntry{}
	err := db.SelectContext(ctx, &entries,
		`SELECT key, path, size, last_access FROM image_cache ORDER BY last_access ASC, key ASC`)
	return entries, err
}

func (db *DB) UpsertImageEntry(ctx context.Context, e domain.ImageEntry) error {
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO image_cache (key, path, size, last_access)
		VALUES (:key, :path, :size, :last_access)
		ON CONFLICT(key) DO UPDATE SET
			path = excluded.path, size = excluded.size, last_access = excluded.last_access
	`, e)
	return err
}

func (db *DB) TouchImageEntry(ctx context.Context, key string, at time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE image_cache SET last_access = ? WHERE key = ?`, at.UnixMilli(), key)
	return err
}

func (db *DB) DeleteImageEntries(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM image_cache WHERE key IN (?)`, keys)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, db.Rebind(query), args...)
	return err
}

func (db *DB) ClearImageEntries(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `DELETE FROM image_cache`)
	return err
}
