package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

const (
	MetaSchemaVersion    = "schema_version"
	MetaCatalogVersion   = "catalog_version"
	MetaExpectedVersion  = "expected_version"
	MetaLastSyncAt       = "last_sync_at"
	MetaFirstRunDone     = "first_run_done"
	MetaSafeModeEnabled  = "safe_mode_enabled"
	MetaSafeModeHash     = "safe_mode_hash"
	MetaCacheEpoch       = "cache_epoch"
	MetaCacheInvalidated = "cache_invalidated"
)

// GetMeta returns "" for missing keys.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.GetContext(ctx, &value, "SELECT value FROM app_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (db *DB) SetMeta(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, upsertMetaSQL, key, value, time.Now().UnixMilli())
	return err
}

const upsertMetaSQL = `
	INSERT INTO app_meta (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

func setMetaTx(ctx context.Context, tx *sqlx.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, upsertMetaSQL, key, value, time.Now().UnixMilli())
	return err
}

func getMetaTx(ctx context.Context, tx *sqlx.Tx, key string) (string, error) {
	var value string
	err := tx.GetContext(ctx, &value, "SELECT value FROM app_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// LoadAppMeta reads every meta row into the typed struct. Unparseable
// values read as their zero value.
func (db *DB) LoadAppMeta(ctx context.Context) (*domain.AppMeta, error) {
	type row struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	var rows []row
	if err := db.SelectContext(ctx, &rows, "SELECT key, value FROM app_meta"); err != nil {
		return nil, err
	}

	meta := &domain.AppMeta{}
	for _, r := range rows {
		switch r.Key {
		case MetaSchemaVersion:
			meta.SchemaVersion, _ = strconv.Atoi(r.Value)
		case MetaCatalogVersion:
			meta.CatalogVersion = parseInt64(r.Value)
		case MetaExpectedVersion:
			meta.ExpectedVersion = parseInt64(r.Value)
		case MetaLastSyncAt:
			if ms := parseInt64(r.Value); ms > 0 {
				meta.LastSyncAt = domain.NewTimestamp(time.UnixMilli(ms).UTC())
			}
		case MetaFirstRunDone:
			meta.FirstRunDone = r.Value == "1"
		case MetaSafeModeEnabled:
			meta.SafeModeEnabled = r.Value == "1"
		case MetaSafeModeHash:
			meta.SafeModeHash = r.Value
		case MetaCacheEpoch:
			meta.CacheEpoch = parseInt64(r.Value)
		case MetaCacheInvalidated:
			meta.CacheInvalidated = r.Value == "1"
		}
	}
	return meta, nil
}

// RaiseExpectedVersion records a remote version the local mirror has not
// caught up with yet. Versions already mirrored or already pending are
// ignored.
func (db *DB) RaiseExpectedVersion(ctx context.Context, version int64) error {
	return db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		for _, key := range []string{MetaExpectedVersion, MetaCatalogVersion} {
			current, err := getMetaTx(ctx, tx, key)
			if err != nil {
				return err
			}
			if parseInt64(current) >= version {
				return nil
			}
		}
		return setMetaTx(ctx, tx, MetaExpectedVersion, strconv.FormatInt(version, 10))
	})
}

// CommitSyncVersion records a finished sync. The catalog version never
// moves backwards.
func (db *DB) CommitSyncVersion(ctx context.Context, version int64, at time.Time) error {
	return db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getMetaTx(ctx, tx, MetaCatalogVersion)
		if err != nil {
			return err
		}
		if version < parseInt64(current) {
			return domain.ErrVersionRegression
		}
		if err := setMetaTx(ctx, tx, MetaCatalogVersion, strconv.FormatInt(version, 10)); err != nil {
			return err
		}
		if err := setMetaTx(ctx, tx, MetaLastSyncAt, strconv.FormatInt(at.UnixMilli(), 10)); err != nil {
			return err
		}
		expected, err := getMetaTx(ctx, tx, MetaExpectedVersion)
		if err != nil {
			return err
		}
		if parseInt64(expected) <= version {
			_, err = tx.ExecContext(ctx, "DELETE FROM app_meta WHERE key = ?", MetaExpectedVersion)
		}
		return err
	})
}

// AckCacheEpoch records that the image cache was purged for epoch.
func (db *DB) AckCacheEpoch(ctx context.Context, epoch int64) error {
	return db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := setMetaTx(ctx, tx, MetaCacheEpoch, strconv.FormatInt(epoch, 10)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM app_meta WHERE key = ?", MetaCacheInvalidated)
		return err
	})
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func boolMeta(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (db *DB) MarkFirstRunDone(ctx context.Context) error {
	return db.SetMeta(ctx, MetaFirstRunDone, "1")
}

// SetSafeMode stores the flag and bcrypt hash together.
func (db *DB) SetSafeMode(ctx context.Context, enabled bool, hash string) error {
	return db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := setMetaTx(ctx, tx, MetaSafeModeEnabled, boolMeta(enabled)); err != nil {
			return err
		}
		if !enabled {
			_, err := tx.ExecContext(ctx, "DELETE FROM app_meta WHERE key = ?", MetaSafeModeHash)
			return err
		}
		return setMetaTx(ctx, tx, MetaSafeModeHash, hash)
	})
}
