package catalog

import (
	"encoding/json"
	"time"
)

// APIPage is the envelope every entity listing comes back in.
type APIPage struct {
	Rows       json.RawMessage `json:"rows"`
	NextCursor string          `json:"next_cursor"`
}

type APIVersion struct {
	Version    json.Number `json:"version"`
	CacheEpoch json.Number `json:"cache_epoch"`
}

type APIText struct {
	Key  string `json:"key"`
	Body string `json:"body"`
}

type APIManhwa struct {
	ID        json.Number `json:"id"`
	Title     string      `json:"title"`
	AltTitles []string    `json:"alt_titles"`
	Cover     string      `json:"cover"`
	Summary   string      `json:"summary"`
	Status    string      `json:"status"`
	Views     json.Number `json:"views"`
	Rating    json.Number `json:"rating"`
	CreatedAt APITime     `json:"created_at"`
	UpdatedAt APITime     `json:"updated_at"`
}

type APIChapter struct {
	ID        json.Number `json:"id"`
	ManhwaID  json.Number `json:"manhwa_id"`
	Name      string      `json:"name"`
	Number    json.Number `json:"number"`
	CreatedAt APITime     `json:"created_at"`
}

type APIGenre struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

type APIAuthor struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
	Role string      `json:"role"`
}

type APIManhwaGenre struct {
	ManhwaID json.Number `json:"manhwa_id"`
	GenreID  json.Number `json:"genre_id"`
}

type APIManhwaAuthor struct {
	ManhwaID json.Number `json:"manhwa_id"`
	AuthorID json.Number `json:"author_id"`
	Role     string      `json:"role"`
}

type APICollection struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

type APICollectionItem struct {
	CollectionID json.Number `json:"collection_id"`
	ManhwaID     json.Number `json:"manhwa_id"`
	Position     json.Number `json:"position"`
}

type APISourceLink struct {
	ID       json.Number `json:"id"`
	ManhwaID json.Number `json:"manhwa_id"`
	Name     string      `json:"name"`
	URL      string      `json:"url"`
}

// APITime accepts RFC3339 strings or unix seconds.
type APITime struct {
	time.Time
}

func (t *APITime) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		t.Time = parsed.UTC()
		return nil
	}
	var secs int64
	if err := json.Unmarshal(data, &secs); err != nil {
		return err
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}
