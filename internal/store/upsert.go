package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

var upsertSQL = map[domain.EntityKind]string{
	domain.KindGenres: `INSERT INTO genres (id, name) VALUES (:id, :name)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
	domain.KindAuthors: `INSERT INTO authors (id, name, role) VALUES (:id, :name, :role)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, role = excluded.role`,
	domain.KindManhwas: `INSERT INTO manhwas (id, title, alt_titles, cover, summary, status, views, rating, created_at, updated_at)
		VALUES (:id, :title, :alt_titles, :cover, :summary, :status, :views, :rating, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, alt_titles = excluded.alt_titles, cover = excluded.cover,
			summary = excluded.summary, status = excluded.status, views = excluded.views,
			rating = excluded.rating, created_at = excluded.created_at, updated_at = excluded.updated_at`,
	domain.KindManhwaGenres: `INSERT INTO manhwa_genres (manhwa_id, genre_id) VALUES (:manhwa_id, :genre_id)
		ON CONFLICT(manhwa_id, genre_id) DO NOTHING`,
	domain.KindManhwaAuthors: `INSERT INTO manhwa_authors (manhwa_id, author_id, role) VALUES (:manhwa_id, :author_id, :role)
		ON CONFLICT(manhwa_id, author_id, role) DO NOTHING`,
	domain.KindChapters: `INSERT INTO chapters (id, manhwa_id, name, number, created_at)
		VALUES (:id, :manhwa_id, :name, :number, :created_at)
		ON CONFLICT(id) DO UPDATE SET
			manhwa_id = excluded.manhwa_id, name = excluded.name,
			number = excluded.number, created_at = excluded.created_at`,
	domain.KindCollections: `INSERT INTO collections (id, name, description) VALUES (:id, :name, :description)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
	domain.KindCollectionItems: `INSERT INTO collection_items (collection_id, manhwa_id, position)
		VALUES (:collection_id, :manhwa_id, :position)
		ON CONFLICT(collection_id, manhwa_id) DO UPDATE SET position = excluded.position`,
	domain.KindSourceLinks: `INSERT INTO source_links (id, manhwa_id, name, url) VALUES (:id, :manhwa_id, :name, :url)
		ON CONFLICT(id) DO UPDATE SET manhwa_id = excluded.manhwa_id, name = excluded.name, url = excluded.url`,
}

// Seq is the 0-based rank by (number, id) inside the manhwa.
const resequenceSQL = `
	UPDATE chapters SET seq = (
		SELECT COUNT(*) FROM chapters c2
		WHERE c2.manhwa_id = chapters.manhwa_id
		  AND (c2.number < chapters.number OR (c2.number = chapters.number AND c2.id < chapters.id))
	)
	WHERE manhwa_id = ?`

// UpsertBatch inserts or updates every row of the batch by remote id in a
// single transaction and returns the number of rows changed. On any error
// nothing from the batch is kept.
func (db *DB) UpsertBatch(ctx context.Context, batch *domain.Batch) (int, error) {
	query, ok := upsertSQL[batch.Kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownEntityKind, batch.Kind)
	}
	rows := batchRows(batch)
	if len(rows) == 0 {
		return 0, nil
	}

	var affected int
	err := db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare %s upsert: %w", batch.Kind, err)
		}
		defer stmt.Close() //nolint:errcheck // deferred cleanup

		for i, row := range rows {
			res, err := stmt.ExecContext(ctx, row)
			if err != nil {
				return fmt.Errorf("upsert %s row %d: %w", batch.Kind, i, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			affected += int(n)
		}

		if batch.Kind == domain.KindChapters {
			return resequence(ctx, tx, batch.Chapters)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func resequence(ctx context.Context, tx *sqlx.Tx, chapters []domain.Chapter) error {
	seen := make(map[int64]bool)
	for _, c := range chapters {
		if seen[c.ManhwaID] {
			continue
		}
		seen[c.ManhwaID] = true
		if _, err := tx.ExecContext(ctx, resequenceSQL, c.ManhwaID); err != nil {
			return fmt.Errorf("resequence manhwa %d: %w", c.ManhwaID, err)
		}
	}
	return nil
}

func batchRows(b *domain.Batch) []interface{} {
	var rows []interface{}
	switch b.Kind {
	case domain.KindGenres:
		for i := range b.Genres {
			rows = append(rows, &b.Genres[i])
		}
	case domain.KindAuthors:
		for i := range b.Authors {
			if b.Authors[i].Role == "" {
				b.Authors[i].Role = domain.RoleAuthor
			}
			rows = append(rows, &b.Authors[i])
		}
	case domain.KindManhwas:
		for i := range b.Manhwas {
			rows = append(rows, &b.Manhwas[i])
		}
	case domain.KindManhwaGenres:
		for i := range b.ManhwaGenres {
			rows = append(rows, &b.ManhwaGenres[i])
		}
	case domain.KindManhwaAuthors:
		for i := range b.ManhwaAuthors {
			if b.ManhwaAuthors[i].Role == "" {
				b.ManhwaAuthors[i].Role = domain.RoleAuthor
			}
			rows = append(rows, &b.ManhwaAuthors[i])
		}
	case domain.KindChapters:
		for i := range b.Chapters {
			rows = append(rows, &b.Chapters[i])
		}
	case domain.KindCollections:
		for i := range b.Collections {
			rows = append(rows, &b.Collections[i])
		}
	case domain.KindCollectionItems:
		for i := range b.CollectionItems {
			rows = append(rows, &b.CollectionItems[i])
		}
	case domain.KindSourceLinks:
		for i := range b.SourceLinks {
			rows = append(rows, &b.SourceLinks[i])
		}
	}
	return rows
}
