// Package query serves paginated catalog and reading reads to the UI.
package query

import (
	"context"
	"errors"
	"strings"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

type Reader interface {
	ListManhwasByUpdated(ctx context.Context, offset, limit int) ([]domain.Manhwa, error)
	ListManhwasByViews(ctx context.Context, offset, limit int) ([]domain.Manhwa, error)
	ListManhwasByGenre(ctx context.Context, genreID int64, offset, limit int) ([]domain.Manhwa, error)
	ListManhwasByAuthor(ctx context.Context, authorID int64) ([]domain.Manhwa, error)
	ListManhwasByReadStatus(ctx context.Context, status domain.ReadStatus, offset, limit int) ([]domain.Manhwa, error)
	ListHistory(ctx context.Context, offset, limit int) ([]domain.HistoryItem, error)
	SearchManhwas(ctx context.Context, term string, offset, limit int) ([]domain.Manhwa, error)
	RandomManhwaID(ctx context.Context) (int64, bool, error)
	GetManhwa(ctx context.Context, id int64) (*domain.Manhwa, error)
	ListManhwaGenres(ctx context.Context, manhwaID int64) ([]domain.Genre, error)
	ListManhwaAuthors(ctx context.Context, manhwaID int64) ([]domain.Author, error)
	ListSourceLinks(ctx context.Context, manhwaID int64) ([]domain.SourceLink, error)
	GetReadingStatus(ctx context.Context, manhwaID int64) (*domain.ReadingStatus, error)
	ListChapters(ctx context.Context, manhwaID int64) ([]domain.Chapter, error)
	ListGenres(ctx context.Context) ([]domain.Genre, error)
	ListCollections(ctx context.Context) ([]domain.Collection, error)
	ListCollectionManhwas(ctx context.Context, collectionID int64) ([]domain.Manhwa, error)
	GetText(ctx context.Context, key string) (string, error)
}

// ManhwaDetail is a manhwa with everything the detail screen shows.
type ManhwaDetail struct {
	domain.Manhwa
	Genres      []domain.Genre        `json:"genres"`
	Authors     []domain.Author       `json:"authors"`
	SourceLinks []domain.SourceLink   `json:"source_links"`
	Reading     *domain.ReadingStatus `json:"reading_status,omitempty"`
}

type Service struct {
	reader Reader
}

func NewService(reader Reader) *Service {
	return &Service{reader: reader}
}

func (s *Service) LatestUpdated(ctx context.Context, offset, limit int) ([]domain.Manhwa, error) {
	if err := domain.ValidatePage(offset, limit); err != nil {
		return nil, &domain.QueryError{Op: "latest_updated", Err: err}
	}
	manhwas, err := s.reader.ListManhwasByUpdated(ctx, offset, limit)
	return wrap("latest_updated", manhwas, err)
}

func (s *Service) MostViewed(ctx context.Context, offset, limit int) ([]domain.Manhwa, error) {
	if err := domain.ValidatePage(offset, limit); err != nil {
		return nil, &domain.QueryError{Op: "most_viewed", Err: err}
	}
	manhwas, err := s.reader.ListManhwasByViews(ctx, offset, limit)
	return wrap("most_viewed", manhwas, err)
}

func (s *Service) ByGenre(ctx context.Context, genreID int64, offset, limit int) ([]domain.Manhwa, error) {
	if err := domain.ValidatePage(offset, limit); err != nil {
		return nil, &domain.QueryError{Op: "by_genre", Err: err}
	}
	manhwas, err := s.reader.ListManhwasByGenre(ctx, genreID, offset, limit)
	return wrap("by_genre", manhwas, err)
}

// ByAuthor returns the author's whole bibliography in one slice.
func (s *Service) ByAuthor(ctx context.Context, authorID int64) ([]domain.Manhwa, error) {
	manhwas, err := s.reader.ListManhwasByAuthor(ctx, authorID)
	return wrap("by_author", manhwas, err)
}

func (s *Service) ByReadingStatus(ctx context.Context, status domain.ReadStatus, offset, limit int) ([]domain.Manhwa, error) {
	if !status.Valid() {
		return nil, &domain.QueryError{Op: "by_reading_status", Err: domain.ErrInvalidStatus}
	}
	if err := domain.ValidatePage(offset, limit); err != nil {
		return nil, &domain.QueryError{Op: "by_reading_status", Err: err}
	}
	manhwas, err := s.reader.ListManhwasByReadStatus(ctx, status, offset, limit)
	return wrap("by_reading_status", manhwas, err)
}

// ReadingHistory lists one entry per manhwa, most recently read first.
func (s *Service) ReadingHistory(ctx context.Context, offset, limit int) ([]domain.HistoryItem, error) {
	if err := domain.ValidatePage(offset, limit); err != nil {
		return nil, &domain.QueryError{Op: "reading_history", Err: err}
	}
	items, err := s.reader.ListHistory(ctx, offset, limit)
	if err != nil {
		return nil, &domain.QueryError{Op: "reading_history", Err: err}
	}
	return items, nil
}

func (s *Service) Search(ctx context.Context, term string, offset, limit int) ([]domain.Manhwa, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Manhwa{}, nil
	}
	if err := domain.ValidatePage(offset, limit); err != nil {
		return nil, &domain.QueryError{Op: "search", Err: err}
	}
	manhwas, err := s.reader.SearchManhwas(ctx, term, offset, limit)
	return wrap("search", manhwas, err)
}

// RandomManhwaID picks uniformly; ok is false on an empty catalog.
func (s *Service) RandomManhwaID(ctx context.Context) (int64, bool, error) {
	id, ok, err := s.reader.RandomManhwaID(ctx)
	if err != nil {
		return 0, false, &domain.QueryError{Op: "random", Err: err}
	}
	return id, ok, nil
}

func (s *Service) Manhwa(ctx context.Context, id int64) (*ManhwaDetail, error) {
	m, err := s.reader.GetManhwa(ctx, id)
	if err != nil {
		return nil, &domain.QueryError{Op: "manhwa", Err: err}
	}
	detail := &ManhwaDetail{Manhwa: *m}
	if detail.Genres, err = s.reader.ListManhwaGenres(ctx, id); err != nil {
		return nil, &domain.QueryError{Op: "manhwa", Err: err}
	}
	if detail.Authors, err = s.reader.ListManhwaAuthors(ctx, id); err != nil {
		return nil, &domain.QueryError{Op: "manhwa", Err: err}
	}
	if detail.SourceLinks, err = s.reader.ListSourceLinks(ctx, id); err != nil {
		return nil, &domain.QueryError{Op: "manhwa", Err: err}
	}
	status, err := s.reader.GetReadingStatus(ctx, id)
	switch {
	case err == nil:
		detail.Reading = status
	case !errors.Is(err, domain.ErrNotFound):
		return nil, &domain.QueryError{Op: "manhwa", Err: err}
	}
	return detail, nil
}

func (s *Service) Chapters(ctx context.Context, manhwaID int64) ([]domain.Chapter, error) {
	chapters, err := s.reader.ListChapters(ctx, manhwaID)
	if err != nil {
		return nil, &domain.QueryError{Op: "chapters", Err: err}
	}
	return chapters, nil
}

func (s *Service) Genres(ctx context.Context) ([]domain.Genre, error) {
	genres, err := s.reader.ListGenres(ctx)
	if err != nil {
		return nil, &domain.QueryError{Op: "genres", Err: err}
	}
	return genres, nil
}

func (s *Service) Collections(ctx context.Context) ([]domain.Collection, error) {
	cols, err := s.reader.ListCollections(ctx)
	if err != nil {
		return nil, &domain.QueryError{Op: "collections", Err: err}
	}
	return cols, nil
}

func (s *Service) CollectionManhwas(ctx context.Context, collectionID int64) ([]domain.Manhwa, error) {
	manhwas, err := s.reader.ListCollectionManhwas(ctx, collectionID)
	return wrap("collection_manhwas", manhwas, err)
}

// Text returns a locally stored text blob such as the EULA.
func (s *Service) Text(ctx context.Context, key string) (string, error) {
	body, err := s.reader.GetText(ctx, key)
	if err != nil {
		return "", &domain.QueryError{Op: "text", Err: err}
	}
	return body, nil
}

func wrap(op string, manhwas []domain.Manhwa, err error) ([]domain.Manhwa, error) {
	if err != nil {
		return nil, &domain.QueryError{Op: op, Err: err}
	}
	if manhwas == nil {
		manhwas = []domain.Manhwa{}
	}
	return manhwas, nil
}
