package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

const manhwaColumns = `m.id, m.title, m.alt_titles, m.cover, m.summary, m.status, m.views, m.rating, m.created_at, m.updated_at`

// Every paged listing ends its ORDER BY with the id so offsets are stable.

func (db *DB) ListManhwasByUpdated(ctx context.Context, offset, limit int) ([]domain.Manhwa, error) {
	query := `SELECT ` + manhwaColumns + ` FROM manhwas m
		ORDER BY m.updated_at DESC, m.id DESC LIMIT ? OFFSET ?`
	return selectManhwas(ctx, db, query, limit, offset)
}

func (db *DB) ListManhwasByViews(ctx context.Context, offset, limit int) ([]domain.Manhwa, error) {
	query := `SELECT ` + manhwaColumns + ` FROM manhwas m
		ORDER BY m.views DESC, m.id DESC LIMIT ? OFFSET ?`
	return selectManhwas(ctx, db, query, limit, offset)
}

func (db *DB) ListManhwasByGenre(ctx context.Context, genreID int64, offset, limit int) ([]domain.Manhwa, error) {
	query := `SELECT ` + manhwaColumns + ` FROM manhwas m
		JOIN manhwa_genres mg ON mg.manhwa_id = m.id
		WHERE mg.genre_id = ?
		ORDER BY m.updated_at DESC, m.id DESC LIMIT ? OFFSET ?`
	return selectManhwas(ctx, db, query, genreID, limit, offset)
}

// ListManhwasByAuthor returns the whole bibliography; a person credited as
// both author and artist appears once.
func (db *DB) ListManhwasByAuthor(ctx context.Context, authorID int64) ([]domain.Manhwa, error) {
	query := `SELECT ` + manhwaColumns + ` FROM manhwas m
		WHERE m.id IN (SELECT manhwa_id FROM manhwa_authors WHERE author_id = ?)
		ORDER BY m.updated_at DESC, m.id DESC`
	return selectManhwas(ctx, db, query, authorID)
}

func (db *DB) ListManhwasByReadStatus(ctx context.Context, status domain.ReadStatus, offset, limit int) ([]domain.Manhwa, error) {
	query := `SELECT ` + manhwaColumns + ` FROM manhwas m
		JOIN reading_status rs ON rs.manhwa_id = m.id
		WHERE rs.status = ?
		ORDER BY rs.updated_at DESC, m.id DESC LIMIT ? OFFSET ?`
	return selectManhwas(ctx, db, query, status, limit, offset)
}

// SearchManhwas matches term literally against titles; % and _ are not
// wildcards.
func (db *DB) SearchManhwas(ctx context.Context, term string, offset, limit int) ([]domain.Manhwa, error) {
	like := "%" + likeEscaper.Replace(term) + "%"
	query := `SELECT ` + manhwaColumns + ` FROM manhwas m
		WHERE m.title LIKE ? ESCAPE '\' OR m.alt_titles LIKE ? ESCAPE '\'
		ORDER BY m.updated_at DESC, m.id DESC LIMIT ? OFFSET ?`
	return selectManhwas(ctx, db, query, like, like, limit, offset)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (db *DB) ListCollectionManhwas(ctx context.Context, collectionID int64) ([]domain.Manhwa, error) {
	query := `SELECT ` + manhwaColumns + ` FROM manhwas m
		JOIN collection_items ci ON ci.manhwa_id = m.id
		WHERE ci.collection_id = ?
		ORDER BY ci.position ASC, m.id ASC`
	return selectManhwas(ctx, db, query, collectionID)
}

// RandomManhwaID returns ok=false on an empty catalog.
func (db *DB) RandomManhwaID(ctx context.Context) (int64, bool, error) {
	var id int64
	err := db.GetContext(ctx, &id, `SELECT id FROM manhwas ORDER BY RANDOM() LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (db *DB) CountManhwas(ctx context.Context) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM manhwas`)
	return n, err
}

func (db *DB) GetManhwa(ctx context.Context, id int64) (*domain.Manhwa, error) {
	var m domain.Manhwa
	err := db.GetContext(ctx, &m, `SELECT `+manhwaColumns+` FROM manhwas m WHERE m.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (db *DB) ListManhwaGenres(ctx context.Context, manhwaID int64) ([]domain.Genre, error) {
	var genres []domain.Genre
	err := db.SelectContext(ctx, &genres, `SELECT g.id, g.name FROM genres g
		JOIN manhwa_genres mg ON mg.genre_id = g.id
		WHERE mg.manhwa_id = ? ORDER BY g.name, g.id`, manhwaID)
	return genres, err
}

// ListManhwaAuthors reports the role from the credit, not the author row.
func (db *DB) ListManhwaAuthors(ctx context.Context, manhwaID int64) ([]domain.Author, error) {
	var authors []domain.Author
	err := db.SelectContext(ctx, &authors, `SELECT a.id, a.name, ma.role FROM authors a
		JOIN manhwa_authors ma ON ma.author_id = a.id
		WHERE ma.manhwa_id = ? ORDER BY ma.role, a.name, a.id`, manhwaID)
	return authors, err
}

func (db *DB) ListSourceLinks(ctx context.Context, manhwaID int64) ([]domain.SourceLink, error) {
	var links []domain.SourceLink
	err := db.SelectContext(ctx, &links, `SELECT id, manhwa_id, name, url FROM source_links
		WHERE manhwa_id = ? ORDER BY id`, manhwaID)
	return links, err
}

func (db *DB) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	var genres []domain.Genre
	err := db.SelectContext(ctx, &genres, `SELECT id, name FROM genres ORDER BY name, id`)
	return genres, err
}

func (db *DB) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	var cols []domain.Collection
	err := db.SelectContext(ctx, &cols, `SELECT id, name, description FROM collections ORDER BY id`)
	return cols, err
}

func selectManhwas(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) ([]domain.Manhwa, error) {
	manhwas := []domain.Manhwa{}
	err := sqlx.SelectContext(ctx, q, &manhwas, query, args...)
	return manhwas, err
}
