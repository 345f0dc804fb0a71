package store

// catalogSchema holds the mirrored remote tables. ResetAll drops and
// recreates exactly these, so it must always describe the latest layout.
const catalogSchema = `
CREATE TABLE IF NOT EXISTS manhwas (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	alt_titles TEXT NOT NULL DEFAULT '[]', -- JSON array
	cover TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	views INTEGER NOT NULL DEFAULT 0,
	rating REAL NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL DEFAULT 0, -- unix ms
	updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_manhwas_updated ON manhwas(updated_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_manhwas_views ON manhwas(views DESC, id DESC);

CREATE TABLE IF NOT EXISTS genres (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS authors (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'author'
);

CREATE TABLE IF NOT EXISTS manhwa_genres (
	manhwa_id INTEGER NOT NULL REFERENCES manhwas(id) ON DELETE CASCADE,
	genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
	PRIMARY KEY (manhwa_id, genre_id)
);

CREATE INDEX IF NOT EXISTS idx_manhwa_genres_genre ON manhwa_genres(genre_id);

CREATE TABLE IF NOT EXISTS manhwa_authors (
	manhwa_id INTEGER NOT NULL REFERENCES manhwas(id) ON DELETE CASCADE,
	author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
	role TEXT NOT NULL DEFAULT 'author',
	PRIMARY KEY (manhwa_id, author_id, role)
);

CREATE INDEX IF NOT EXISTS idx_manhwa_authors_author ON manhwa_authors(author_id);

CREATE TABLE IF NOT EXISTS chapters (
	id INTEGER PRIMARY KEY,
	manhwa_id INTEGER NOT NULL REFERENCES manhwas(id) ON DELETE CASCADE,
	name TEXT NOT NULL DEFAULT '',
	number REAL NOT NULL DEFAULT 0,
	seq INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_chapters_manhwa_seq ON chapters(manhwa_id, seq);

CREATE TABLE IF NOT EXISTS collections (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS collection_items (
	collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
	manhwa_id INTEGER NOT NULL REFERENCES manhwas(id) ON DELETE CASCADE,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (collection_id, manhwa_id)
);

CREATE TABLE IF NOT EXISTS source_links (
	id INTEGER PRIMARY KEY,
	manhwa_id INTEGER NOT NULL REFERENCES manhwas(id) ON DELETE CASCADE,
	name TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_source_links_manhwa ON source_links(manhwa_id);
`

// catalogTables in drop order, children first.
var catalogTables = []string{
	"source_links",
	"collection_items",
	"chapters",
	"manhwa_authors",
	"manhwa_genres",
	"collections",
	"manhwas",
	"authors",
	"genres",
}

// privateSchemaV1 holds device-private tables. They carry no foreign keys
// into the catalog so they survive catalog resets; joins filter orphans.
const privateSchemaV1 = `
CREATE TABLE IF NOT EXISTS app_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reading_status (
	manhwa_id INTEGER PRIMARY KEY,
	status TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reading_history (
	manhwa_id INTEGER NOT NULL,
	chapter_id INTEGER NOT NULL,
	read_at INTEGER NOT NULL,
	images_viewed INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (manhwa_id, chapter_id)
);

CREATE TABLE IF NOT EXISTS text_content (
	key TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS fetch_cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);
`

const privateSchemaV2 = `
CREATE TABLE IF NOT EXISTS image_cache (
	key TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	last_access INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_image_cache_access ON image_cache(last_access);
CREATE INDEX IF NOT EXISTS idx_reading_history_read_at ON reading_history(read_at DESC);
CREATE INDEX IF NOT EXISTS idx_reading_status_status ON reading_status(status, updated_at DESC);
`

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
