package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/cesargomez89/toonshelf/internal/domain"
)

func (r APIManhwa) ToDomain() domain.Manhwa {
	return domain.Manhwa{
		ID:        toInt64(r.ID),
		Title:     r.Title,
		AltTitles: domain.StringSlice(r.AltTitles),
		Cover:     r.Cover,
		Summary:   r.Summary,
		Status:    r.Status,
		Views:     toInt64(r.Views),
		Rating:    toFloat(r.Rating),
		CreatedAt: domain.NewTimestamp(r.CreatedAt.Time),
		UpdatedAt: domain.NewTimestamp(r.UpdatedAt.Time),
	}
}

func (r APIChapter) ToDomain() domain.Chapter {
	return domain.Chapter{
		ID:        toInt64(r.ID),
		ManhwaID:  toInt64(r.ManhwaID),
		Name:      r.Name,
		Number:    toFloat(r.Number),
		CreatedAt: domain.NewTimestamp(r.CreatedAt.Time),
	}
}

func (r APIAuthor) ToDomain() domain.Author {
	return domain.Author{ID: toInt64(r.ID), Name: r.Name, Role: toRole(r.Role)}
}

func (r APIManhwaAuthor) ToDomain() domain.ManhwaAuthor {
	return domain.ManhwaAuthor{ManhwaID: toInt64(r.ManhwaID), AuthorID: toInt64(r.AuthorID), Role: toRole(r.Role)}
}

func (r APIVersion) ToDomain() *VersionInfo {
	return &VersionInfo{Version: toInt64(r.Version), CacheEpoch: toInt64(r.CacheEpoch)}
}

// decodeRows fills the batch slice matching kind from a raw rows array.
func decodeRows(kind domain.EntityKind, raw json.RawMessage) (*domain.Batch, error) {
	batch := &domain.Batch{Kind: kind}
	if len(raw) == 0 || string(raw) == "null" {
		return batch, nil
	}

	var err error
	switch kind {
	case domain.KindGenres:
		var rows []APIGenre
		if err = json.Unmarshal(raw, &rows); err == nil {
			for _, r := range rows {
				batch.Genres = append(batch.Genres, domain.Genre{ID: toInt64(r.ID), Name: r.Name})
			}
		}
	case domain.KindAuthors:
		var rows []APIAuthor
		if err = json.Unmarshal(raw, &rows); err == nil {
			for _, r := range rows {
				batch.Authors = append(batch.Authors, r.ToDomain())
			}
		}
	case domain.KindManhwas:
		var rows []APIManhwa
		if err = json.Unmarshal(raw, &rows); err == nil {
			for _, r := range rows {
				batch.Manhwas = append(batch.Manhwas, r.ToDomain())
			}
		}
	case domain.KindManhwaGenres:
		var rows []APIManhwaGenre
		if err = json.Unmarshal(raw, &rows); err == nil {
			for _, r := range rows {
				batch.ManhwaGenres = append(batch.ManhwaGenres, domain.ManhwaGenre{ManhwaID: toInt64(r.ManhwaID), GenreID: toInt64(r.GenreID)})
			}
		}
	case domain.KindManhwaAuthors:
		var rows []APIManhwaAuthor
		if err = json.Unmarshal(raw, &rows); err == nil {
			for _, r := range rows {
				batch.ManhwaAuthors = append(batch.ManhwaAuthors, r.ToDomain())
			}
		}
	case domain.KindChapters:
		var rows []APIChapter
		if err = json.Unmarshal(raw, &rows); err == nil {
			for _, r := range rows {
				batch.Chapters = append(batch.Chapters, r.ToDomain())
			}
		}
	case domain.KindCollections:
		var rows []APICollection
		if err = json.Unmarshal(raw, &rows); err == nil {
			for _, r := range rows {
				batch.Collections = append(batch.Collections, domain.Collection{ID: toInt64(r.ID), Name: r.Name, Description: r.Description})
			}
		}
	case domain.KindCollectionItems:
		var rows []APICollectionItem
		if err = json.Unmarshal(raw, &rows); err == nil {
			for _, r := range rows {
				batch.CollectionItems = append(batch.CollectionItems, domain.CollectionItem{
					CollectionID: toInt64(r.CollectionID),
					ManhwaID:     toInt64(r.ManhwaID),
					Position:     int(toInt64(r.Position)),
				})
			}
		}
	case domain.KindSourceLinks:
		var rows []APISourceLink
		if err = json.Unmarshal(raw, &rows); err == nil {
			for _, r := range rows {
				batch.SourceLinks = append(batch.SourceLinks, domain.SourceLink{ID: toInt64(r.ID), ManhwaID: toInt64(r.ManhwaID), Name: r.Name, URL: r.URL})
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntityKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", kind, err)
	}
	return batch, nil
}

func toInt64(n json.Number) int64 {
	if n == "" {
		return 0
	}
	if v, err := n.Int64(); err == nil {
		return v
	}
	f, _ := n.Float64()
	return int64(f)
}

func toFloat(n json.Number) float64 {
	f, _ := n.Float64()
	return f
}

func toRole(s string) domain.AuthorRole {
	if domain.AuthorRole(s) == domain.RoleArtist {
		return domain.RoleArtist
	}
	return domain.RoleAuthor
}
