package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/httpclient"
	"github.com/cesargomez89/toonshelf/internal/logger"
)

func newTestServer(t *testing.T) *HTTPClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/manhwas", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("cursor") {
		case "":
			_, _ = w.Write([]byte(`{"rows":[{"id":1,"title":"Solo","alt_titles":["Na Honjaman"],"views":"120","rating":4.5,"updated_at":"2024-03-01T10:00:00Z"}],"next_cursor":"p2"}`))
		case "p2":
			_, _ = w.Write([]byte(`{"rows":[{"id":2,"title":"Tower","updated_at":1709287200}],"next_cursor":""}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/v1/manhwa_authors", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows":[{"manhwa_id":1,"author_id":2,"role":"artist"},{"manhwa_id":1,"author_id":3,"role":""}]}`))
	})
	mux.HandleFunc("/v1/version", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":12,"cache_epoch":3}`))
	})
	mux.HandleFunc("/v1/texts/eula", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"key":"eula","body":"be nice"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	hc := httpclient.NewClient(nil, time.Second, 0).WithRetry(1, time.Millisecond)
	return NewHTTPClient(srv.URL+"/", hc, logger.Discard())
}

func TestHTTPClient_FetchEntitiesPages(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	page, err := c.FetchEntities(ctx, domain.KindManhwas, "")
	if err != nil {
		t.Fatalf("FetchEntities failed: %v", err)
	}
	if page.Kind != domain.KindManhwas || len(page.Manhwas) != 1 {
		t.Fatalf("Expected 1 manhwa, got %+v", page.Batch)
	}
	m := page.Manhwas[0]
	if m.ID != 1 || m.Views != 120 || m.Rating != 4.5 || len(m.AltTitles) != 1 {
		t.Errorf("Unexpected manhwa: %+v", m)
	}
	if !m.UpdatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected updated_at: %v", m.UpdatedAt)
	}
	if page.NextCursor != "p2" {
		t.Errorf("Expected cursor p2, got %q", page.NextCursor)
	}

	page, err = c.FetchEntities(ctx, domain.KindManhwas, page.NextCursor)
	if err != nil {
		t.Fatalf("FetchEntities page 2 failed: %v", err)
	}
	if page.NextCursor != "" || page.Manhwas[0].UpdatedAt.Unix() != 1709287200 {
		t.Errorf("Unexpected second page: %+v", page)
	}
}

func TestHTTPClient_DefaultsAuthorRole(t *testing.T) {
	c := newTestServer(t)
	page, err := c.FetchEntities(context.Background(), domain.KindManhwaAuthors, "")
	if err != nil {
		t.Fatalf("FetchEntities failed: %v", err)
	}
	if len(page.ManhwaAuthors) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(page.ManhwaAuthors))
	}
	if page.ManhwaAuthors[0].Role != domain.RoleArtist || page.ManhwaAuthors[1].Role != domain.RoleAuthor {
		t.Errorf("Unexpected roles: %+v", page.ManhwaAuthors)
	}
}

func TestHTTPClient_VersionAndText(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	v, err := c.FetchVersion(ctx)
	if err != nil {
		t.Fatalf("FetchVersion failed: %v", err)
	}
	if v.Version != 12 || v.CacheEpoch != 3 {
		t.Errorf("Unexpected version: %+v", v)
	}

	body, err := c.FetchText(ctx, "eula")
	if err != nil {
		t.Fatalf("FetchText failed: %v", err)
	}
	if body != "be nice" {
		t.Errorf("Expected body, got %q", body)
	}

	if _, err := c.FetchText(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestHTTPClient_RejectsUnknownKind(t *testing.T) {
	c := newTestServer(t)
	if _, err := c.FetchEntities(context.Background(), "volumes", ""); !errors.Is(err, domain.ErrUnknownEntityKind) {
		t.Errorf("Expected ErrUnknownEntityKind, got %v", err)
	}
}

func TestAPITime_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", `"2024-01-02T03:04:05Z"`, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), false},
		{"unix", `1704164645`, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), false},
		{"null", `null`, time.Time{}, false},
		{"empty", `""`, time.Time{}, false},
		{"garbage", `"yesterday"`, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got APITime
			err := got.UnmarshalJSON([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got.Time)
			}
		})
	}
}
