package domain

import "fmt"

// EntityKind names one remotely synced table.
type EntityKind string

const (
	KindGenres          EntityKind = "genres"
	KindAuthors         EntityKind = "authors"
	KindManhwas         EntityKind = "manhwas"
	KindManhwaGenres    EntityKind = "manhwa_genres"
	KindManhwaAuthors   EntityKind = "manhwa_authors"
	KindChapters        EntityKind = "chapters"
	KindCollections     EntityKind = "collections"
	KindCollectionItems EntityKind = "collection_items"
	KindSourceLinks     EntityKind = "source_links"
)

// SyncOrder lists kinds parents first. Join rows reference both sides, so
// they must come after the tables they point at.
var SyncOrder = []EntityKind{
	KindGenres,
	KindAuthors,
	KindManhwas,
	KindManhwaGenres,
	KindManhwaAuthors,
	KindChapters,
	KindCollections,
	KindCollectionItems,
	KindSourceLinks,
}

func (k EntityKind) Valid() bool {
	for _, known := range SyncOrder {
		if k == known {
			return true
		}
	}
	return false
}

// Manhwa is a catalog series
type Manhwa struct {
	ID        int64       `json:"id" db:"id"`
	Title     string      `json:"title" db:"title"`
	AltTitles StringSlice `json:"alt_titles" db:"alt_titles"`
	Cover     string      `json:"cover" db:"cover"`
	Summary   string      `json:"summary,omitempty" db:"summary"`
	Status    string      `json:"status" db:"status"`
	Views     int64       `json:"views" db:"views"`
	Rating    float64     `json:"rating" db:"rating"`
	CreatedAt Timestamp   `json:"created_at" db:"created_at"`
	UpdatedAt Timestamp   `json:"updated_at" db:"updated_at"`
}

// Chapter belongs to exactly one manhwa. Seq is its 0-based position in the
// manhwa ordered by number then id, recomputed whenever chapters are synced.
type Chapter struct {
	ID        int64     `json:"id" db:"id"`
	ManhwaID  int64     `json:"manhwa_id" db:"manhwa_id"`
	Name      string    `json:"name" db:"name"`
	Number    float64   `json:"number" db:"number"`
	Seq       int       `json:"seq" db:"seq"`
	CreatedAt Timestamp `json:"created_at" db:"created_at"`
}

type Genre struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type AuthorRole string

const (
	RoleAuthor AuthorRole = "author"
	RoleArtist AuthorRole = "artist"
)

type Author struct {
	ID   int64      `json:"id" db:"id"`
	Name string     `json:"name" db:"name"`
	Role AuthorRole `json:"role" db:"role"`
}

type ManhwaGenre struct {
	ManhwaID int64 `json:"manhwa_id" db:"manhwa_id"`
	GenreID  int64 `json:"genre_id" db:"genre_id"`
}

type ManhwaAuthor struct {
	ManhwaID int64      `json:"manhwa_id" db:"manhwa_id"`
	AuthorID int64      `json:"author_id" db:"author_id"`
	Role     AuthorRole `json:"role" db:"role"`
}

// Collection is an editorially curated grouping of manhwas
type Collection struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

type CollectionItem struct {
	CollectionID int64 `json:"collection_id" db:"collection_id"`
	ManhwaID     int64 `json:"manhwa_id" db:"manhwa_id"`
	Position     int   `json:"position" db:"position"`
}

// SourceLink points at an external site carrying the series
type SourceLink struct {
	ID       int64  `json:"id" db:"id"`
	ManhwaID int64  `json:"manhwa_id" db:"manhwa_id"`
	Name     string `json:"name" db:"name"`
	URL      string `json:"url" db:"url"`
}

// Batch is one page of rows for a single entity kind. Only the slice
// matching Kind is read.
type Batch struct {
	Kind            EntityKind
	Genres          []Genre
	Authors         []Author
	Manhwas         []Manhwa
	ManhwaGenres    []ManhwaGenre
	ManhwaAuthors   []ManhwaAuthor
	Chapters        []Chapter
	Collections     []Collection
	CollectionItems []CollectionItem
	SourceLinks     []SourceLink
}

// Len returns the number of rows of the batch's kind.
func (b *Batch) Len() int {
	switch b.Kind {
	case KindGenres:
		return len(b.Genres)
	case KindAuthors:
		return len(b.Authors)
	case KindManhwas:
		return len(b.Manhwas)
	case KindManhwaGenres:
		return len(b.ManhwaGenres)
	case KindManhwaAuthors:
		return len(b.ManhwaAuthors)
	case KindChapters:
		return len(b.Chapters)
	case KindCollections:
		return len(b.Collections)
	case KindCollectionItems:
		return len(b.CollectionItems)
	case KindSourceLinks:
		return len(b.SourceLinks)
	}
	return 0
}

// ReadStatus is the closed set of reading states a user can pick
type ReadStatus string

const (
	ReadStatusReading    ReadStatus = "reading"
	ReadStatusCompleted  ReadStatus = "completed"
	ReadStatusDropped    ReadStatus = "dropped"
	ReadStatusPlanToRead ReadStatus = "plan_to_read"
	ReadStatusOnHold     ReadStatus = "on_hold"
	ReadStatusRereading  ReadStatus = "rereading"
)

var ReadStatuses = []ReadStatus{
	ReadStatusReading,
	ReadStatusCompleted,
	ReadStatusDropped,
	ReadStatusPlanToRead,
	ReadStatusOnHold,
	ReadStatusRereading,
}

func (s ReadStatus) Valid() bool {
	for _, known := range ReadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func ParseReadStatus(s string) (ReadStatus, error) {
	status := ReadStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

type ReadingStatus struct {
	ManhwaID  int64      `json:"manhwa_id" db:"manhwa_id"`
	Status    ReadStatus `json:"status" db:"status"`
	UpdatedAt Timestamp  `json:"updated_at" db:"updated_at"`
}

type HistoryEntry struct {
	ManhwaID     int64     `json:"manhwa_id" db:"manhwa_id"`
	ChapterID    int64     `json:"chapter_id" db:"chapter_id"`
	ReadAt       Timestamp `json:"read_at" db:"read_at"`
	ImagesViewed int       `json:"images_viewed" db:"images_viewed"`
}

// HistoryItem is one "continue reading" row: a manhwa with the chapter
// last opened in it.
type HistoryItem struct {
	Manhwa
	ChapterID   int64     `json:"chapter_id" db:"chapter_id"`
	ChapterName string    `json:"chapter_name" db:"chapter_name"`
	ReadAt      Timestamp `json:"read_at" db:"read_at"`
}

type ReadingStats struct {
	ChaptersRead   int `json:"chapters_read" db:"chapters_read"`
	ImagesViewed   int `json:"images_viewed" db:"images_viewed"`
	ManhwasStarted int `json:"manhwas_started" db:"manhwas_started"`
}

// AppMeta is the typed view of the app_meta key/value table
type AppMeta struct {
	SchemaVersion    int
	CatalogVersion   int64
	ExpectedVersion  int64
	LastSyncAt       Timestamp
	FirstRunDone     bool
	SafeModeEnabled  bool
	SafeModeHash     string
	CacheEpoch       int64
	CacheInvalidated bool
}

// Synced reports whether a sync has ever committed.
func (m *AppMeta) Synced() bool {
	return !m.LastSyncAt.IsZero()
}

// ImageEntry is the accounting row for one cached image file
type ImageEntry struct {
	Key        string    `db:"key"`
	Path       string    `db:"path"`
	Size       int64     `db:"size"`
	LastAccess Timestamp `db:"last_access"`
}
