package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/toonshelf/internal/constants"
	"github.com/cesargomez89/toonshelf/internal/domain"
)

type migration struct {
	version     int
	description string
	apply       func(ctx context.Context, tx *sqlx.Tx) error
}

// migrations run in order; each one commits together with its
// schema_migrations row. None of them may drop private tables.
var migrations = []migration{
	{
		version:     1,
		description: "catalog mirror and private tables",
		apply: func(ctx context.Context, tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, catalogSchema); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, privateSchemaV1)
			return err
		},
	},
	{
		version:     2,
		description: "image cache accounting and chapter sequence rebuild",
		apply: func(ctx context.Context, tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, privateSchemaV2); err != nil {
				return err
			}
			// Chapter seq became authoritative for navigation; rebuild the
			// mirror so the next sync recomputes it and cached images keyed
			// by the old layout get purged.
			if err := rebuildCatalog(ctx, tx); err != nil {
				return err
			}
			return setMetaTx(ctx, tx, MetaCacheInvalidated, "1")
		},
	},
}

// InitSchema creates missing tables and applies pending migrations. It is
// safe to call on every start.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return &domain.SchemaError{Version: constants.SchemaVersion, Err: err}
	}

	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return &domain.SchemaError{Version: constants.SchemaVersion, Err: err}
	}
	if current > constants.SchemaVersion {
		return &domain.SchemaError{
			Version: current,
			Err:     fmt.Errorf("database is newer than this build (supports v%d)", constants.SchemaVersion),
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := db.RunInTx(ctx, func(tx *sqlx.Tx) error {
			if err := m.apply(ctx, tx); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
				m.version, m.description); err != nil {
				return err
			}
			return setMetaTx(ctx, tx, MetaSchemaVersion, strconv.Itoa(m.version))
		})
		if err != nil {
			return &domain.SchemaError{Version: m.version, Err: err}
		}
	}

	// An interrupted reset can leave catalog tables missing.
	if _, err := db.ExecContext(ctx, catalogSchema); err != nil {
		return &domain.SchemaError{Version: constants.SchemaVersion, Err: err}
	}
	return nil
}

// SchemaVersion returns the highest applied migration, 0 on a fresh file.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := db.GetContext(ctx, &v, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	return v, err
}

func rebuildCatalog(ctx context.Context, tx *sqlx.Tx) error {
	for _, table := range catalogTables {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, catalogSchema); err != nil {
		return fmt.Errorf("recreate catalog: %w", err)
	}
	for _, key := range []string{MetaCatalogVersion, MetaExpectedVersion, MetaLastSyncAt} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM app_meta WHERE key = ?`, key); err != nil {
			return err
		}
	}
	return nil
}

// ResetAll drops and recreates the catalog mirror. Private tables are only
// wiped when includePrivate is set; safe-mode and first-run flags survive.
func (db *DB) ResetAll(ctx context.Context, includePrivate bool) error {
	return db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := rebuildCatalog(ctx, tx); err != nil {
			return err
		}
		if !includePrivate {
			return nil
		}
		for _, table := range []string{"reading_status", "reading_history", "text_content", "fetch_cache"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
