package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

// GetText returns domain.ErrNotFound when the blob was never fetched.
func (db *DB) GetText(ctx context.Context, key string) (string, error) {
	var body string
	err := db.GetContext(ctx, &body, "SELECT body FROM text_content WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return body, err
}

func (db *DB) SetText(ctx context.Context, key, body string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO text_content (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, key, body, time.Now().UnixMilli())
	return err
}
