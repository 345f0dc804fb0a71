package httpapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/toonshelf/internal/app"
	"github.com/cesargomez89/toonshelf/internal/bootstrap"
	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/query"
	"github.com/cesargomez89/toonshelf/internal/store"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

type stubSyncer struct {
	err error
}

func (s *stubSyncer) Sync(ctx context.Context) (*syncer.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &syncer.Report{Version: 7, UpToDate: true}, nil
}

func (s *stubSyncer) State() syncer.State { return syncer.StateIdle }

func (s *stubSyncer) LastError() error { return s.err }

type stubResetter struct {
	includePrivate bool
}

func (s *stubResetter) ResetApp(ctx context.Context, includePrivate bool) (*syncer.Report, error) {
	s.includePrivate = includePrivate
	return &syncer.Report{Version: 1}, nil
}

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test_http.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	return db
}

// seedCatalog stores three manhwas updated one hour apart (3 newest) and
// three chapters of manhwa 1.
func seedCatalog(t *testing.T, db *store.DB) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var manhwas []domain.Manhwa
	for i := int64(1); i <= 3; i++ {
		manhwas = append(manhwas, domain.Manhwa{
			ID:        i,
			Title:     []string{"", "Solo Leveling", "Tower of God", "The Breaker"}[i],
			Views:     100 * i,
			UpdatedAt: domain.NewTimestamp(base.Add(time.Duration(i) * time.Hour)),
		})
	}
	batches := []*domain.Batch{
		{Kind: domain.KindGenres, Genres: []domain.Genre{{ID: 1, Name: "Action"}}},
		{Kind: domain.KindManhwas, Manhwas: manhwas},
		{Kind: domain.KindManhwaGenres, ManhwaGenres: []domain.ManhwaGenre{{ManhwaID: 1, GenreID: 1}, {ManhwaID: 3, GenreID: 1}}},
		{Kind: domain.KindChapters, Chapters: []domain.Chapter{
			{ID: 101, ManhwaID: 1, Number: 1},
			{ID: 102, ManhwaID: 1, Number: 2},
			{ID: 103, ManhwaID: 1, Number: 3},
		}},
	}
	for _, b := range batches {
		if _, err := db.UpsertBatch(context.Background(), b); err != nil {
			t.Fatalf("UpsertBatch %s failed: %v", b.Kind, err)
		}
	}
	if err := db.SetText(context.Background(), "eula", "be nice"); err != nil {
		t.Fatalf("SetText failed: %v", err)
	}
}

func newTestHandler(t *testing.T) (*Handler, http.Handler, *stubSyncer, *stubResetter) {
	t.Helper()
	db := setupTestDB(t)
	seedCatalog(t, db)
	log := logger.Discard()

	engine := &stubSyncer{}
	resetter := &stubResetter{}
	h := NewHandler(
		query.NewService(db),
		app.NewReadingService(db, log),
		app.NewSafeModeService(db, log),
		resetter,
		engine,
		log,
	)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return h, r, engine, resetter
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response failed: %v (body %q)", err, rec.Body.String())
	}
}

type manhwaPage struct {
	Items      []domain.Manhwa `json:"items"`
	NextOffset int             `json:"next_offset"`
	HasMore    bool            `json:"has_more"`
}

func TestRoutes_StatusCodes(t *testing.T) {
	_, router, _, _ := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"latest", http.MethodGet, "/api/manhwas/latest", nil, http.StatusOK},
		{"latest bad limit", http.MethodGet, "/api/manhwas/latest?limit=0", nil, http.StatusBadRequest},
		{"latest negative offset", http.MethodGet, "/api/manhwas/latest?offset=-5", nil, http.StatusBadRequest},
		{"popular", http.MethodGet, "/api/manhwas/popular?limit=2", nil, http.StatusOK},
		{"detail", http.MethodGet, "/api/manhwas/1", nil, http.StatusOK},
		{"detail missing", http.MethodGet, "/api/manhwas/99", nil, http.StatusNotFound},
		{"detail bad id", http.MethodGet, "/api/manhwas/abc", nil, http.StatusBadRequest},
		{"chapters", http.MethodGet, "/api/manhwas/1/chapters", nil, http.StatusOK},
		{"random", http.MethodGet, "/api/manhwas/random", nil, http.StatusOK},
		{"genre", http.MethodGet, "/api/genres/1/manhwas", nil, http.StatusOK},
		{"genres", http.MethodGet, "/api/genres", nil, http.StatusOK},
		{"author", http.MethodGet, "/api/authors/1/manhwas", nil, http.StatusOK},
		{"status list", http.MethodGet, "/api/status/reading/manhwas", nil, http.StatusOK},
		{"status list unknown", http.MethodGet, "/api/status/favourite/manhwas", nil, http.StatusBadRequest},
		{"collections", http.MethodGet, "/api/collections", nil, http.StatusOK},
		{"history", http.MethodGet, "/api/history", nil, http.StatusOK},
		{"stats", http.MethodGet, "/api/stats", nil, http.StatusOK},
		{"search", http.MethodGet, "/api/search?q=tower", nil, http.StatusOK},
		{"text", http.MethodGet, "/api/text/eula", nil, http.StatusOK},
		{"text missing", http.MethodGet, "/api/text/disclaimer", nil, http.StatusNotFound},
		{"set status invalid", http.MethodPut, "/api/manhwas/1/status", map[string]string{"status": "loved"}, http.StatusBadRequest},
		{"set status unknown manhwa", http.MethodPut, "/api/manhwas/99/status", map[string]string{"status": "reading"}, http.StatusNotFound},
		{"set status unknown field", http.MethodPut, "/api/manhwas/1/status", map[string]string{"state": "reading"}, http.StatusBadRequest},
		{"clear status", http.MethodDelete, "/api/manhwas/1/status", nil, http.StatusNoContent},
		{"read wrong manhwa", http.MethodPost, "/api/manhwas/2/chapters/101/read", nil, http.StatusNotFound},
		{"read negative images", http.MethodPost, "/api/manhwas/1/chapters/101/read", map[string]int{"images": -1}, http.StatusBadRequest},
		{"next of last", http.MethodGet, "/api/chapters/103/next", nil, http.StatusNotFound},
		{"previous of first", http.MethodGet, "/api/chapters/101/previous", nil, http.StatusNotFound},
		{"sync state", http.MethodGet, "/api/sync", nil, http.StatusOK},
		{"safemode state", http.MethodGet, "/api/safemode", nil, http.StatusOK},
		{"verify without safemode", http.MethodPost, "/api/safemode/verify", map[string]string{"password": "hunter2"}, http.StatusConflict},
		{"enable short password", http.MethodPost, "/api/safemode/enable", map[string]string{"password": "ab"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (body %q)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRoutes_LatestPagination(t *testing.T) {
	_, router, _, _ := newTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/manhwas/latest?limit=2", nil)
	var first manhwaPage
	decode(t, rec, &first)
	if len(first.Items) != 2 || first.Items[0].ID != 3 || first.Items[1].ID != 2 {
		t.Fatalf("Expected ids [3 2], got %+v", first.Items)
	}
	if !first.HasMore || first.NextOffset != 2 {
		t.Errorf("Expected more after a full page, got %+v", first)
	}

	rec = do(t, router, http.MethodGet, "/api/manhwas/latest?limit=2&offset=2", nil)
	var second manhwaPage
	decode(t, rec, &second)
	if len(second.Items) != 1 || second.Items[0].ID != 1 || !second.HasMore || second.NextOffset != 3 {
		t.Errorf("Expected short page [1] with more to ask for, got %+v", second)
	}

	rec = do(t, router, http.MethodGet, "/api/manhwas/latest?limit=2&offset=3", nil)
	var third manhwaPage
	decode(t, rec, &third)
	if len(third.Items) != 0 || third.HasMore {
		t.Errorf("Expected empty final page, got %+v", third)
	}
}

func TestRoutes_SearchBlankTerm(t *testing.T) {
	_, router, _, _ := newTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/search?q=%20%20", nil)
	var page manhwaPage
	decode(t, rec, &page)
	if page.Items == nil || len(page.Items) != 0 {
		t.Errorf("Expected empty items for blank search, got %+v", page.Items)
	}
}

func TestRoutes_ReadingFlow(t *testing.T) {
	_, router, _, _ := newTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/manhwas/1/chapters/101/read", map[string]int{"images": 12})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("record read = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/status/reading/manhwas", nil)
	var reading manhwaPage
	decode(t, rec, &reading)
	if len(reading.Items) != 1 || reading.Items[0].ID != 1 {
		t.Errorf("First read should mark manhwa 1 as reading, got %+v", reading.Items)
	}

	rec = do(t, router, http.MethodPut, "/api/manhwas/1/status", map[string]string{"status": "completed"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/manhwas/1", nil)
	var detail struct {
		Title   string `json:"title"`
		Genres  []domain.Genre        `json:"genres"`
		Reading *domain.ReadingStatus `json:"reading_status"`
	}
	decode(t, rec, &detail)
	if detail.Reading == nil || detail.Reading.Status != domain.ReadStatusCompleted {
		t.Errorf("Expected completed status on detail, got %+v", detail.Reading)
	}
	if len(detail.Genres) != 1 || detail.Genres[0].Name != "Action" {
		t.Errorf("Expected Action genre, got %+v", detail.Genres)
	}

	rec = do(t, router, http.MethodGet, "/api/history", nil)
	var history struct {
		Items []domain.HistoryItem `json:"items"`
	}
	decode(t, rec, &history)
	if len(history.Items) != 1 || history.Items[0].ChapterID != 101 {
		t.Errorf("Expected chapter 101 in history, got %+v", history.Items)
	}

	rec = do(t, router, http.MethodGet, "/api/stats", nil)
	var stats domain.ReadingStats
	decode(t, rec, &stats)
	if stats.ChaptersRead != 1 || stats.ImagesViewed != 12 {
		t.Errorf("Expected 1 chapter / 12 images, got %+v", stats)
	}

	rec = do(t, router, http.MethodGet, "/api/chapters/101/next", nil)
	var next domain.Chapter
	decode(t, rec, &next)
	if next.ID != 102 {
		t.Errorf("Expected next chapter 102, got %d", next.ID)
	}
}

func TestRoutes_Sync(t *testing.T) {
	_, router, engine, _ := newTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/sync", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sync = %d: %s", rec.Code, rec.Body.String())
	}
	var report syncer.Report
	decode(t, rec, &report)
	if report.Version != 7 || !report.UpToDate {
		t.Errorf("Unexpected report %+v", report)
	}

	errorCases := []struct {
		name string
		err  error
		want int
	}{
		{"in progress", syncer.ErrSyncInProgress, http.StatusConflict},
		{"remote failure", &domain.SyncError{Kind: domain.KindChapters, Err: errors.New("boom")}, http.StatusBadGateway},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			engine.err = tt.err
			rec := do(t, router, http.MethodPost, "/api/sync", nil)
			if rec.Code != tt.want {
				t.Errorf("sync with %v = %d, want %d", tt.err, rec.Code, tt.want)
			}
		})
	}
}

func TestRoutes_Bootstrap(t *testing.T) {
	h, router, _, _ := newTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/bootstrap", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before startup finishes, got %d", rec.Code)
	}

	h.SetOutcome(bootstrap.Outcome{
		Route:   bootstrap.RouteDegradedOffline,
		Notices: []bootstrap.Notice{{Code: bootstrap.NoticeOffline, Message: "no network"}},
	})
	rec = do(t, router, http.MethodGet, "/api/bootstrap", nil)
	var out bootstrap.Outcome
	decode(t, rec, &out)
	if out.Route != bootstrap.RouteDegradedOffline || len(out.Notices) != 1 {
		t.Errorf("Unexpected outcome %+v", out)
	}
}

func TestRoutes_SafeMode(t *testing.T) {
	_, router, _, _ := newTestHandler(t)

	pw := func(p string) map[string]string { return map[string]string{"password": p} }
	change := func(current, p string) map[string]string {
		return map[string]string{"current": current, "password": p}
	}
	steps := []struct {
		path string
		body map[string]string
		want int
	}{
		{"/api/safemode/enable", pw("open sesame"), http.StatusNoContent},
		{"/api/safemode/enable", pw("intruder1"), http.StatusConflict},
		{"/api/safemode/disable", pw("intruder1"), http.StatusForbidden},
		{"/api/safemode/verify", pw("wrong pass"), http.StatusForbidden},
		{"/api/safemode/verify", pw("open sesame"), http.StatusNoContent},
		{"/api/safemode/password", change("wrong pass", "new secret"), http.StatusForbidden},
		{"/api/safemode/password", change("", "new secret"), http.StatusBadRequest},
		{"/api/safemode/password", change("open sesame", "new secret"), http.StatusNoContent},
		{"/api/safemode/disable", pw("open sesame"), http.StatusForbidden},
		{"/api/safemode/disable", pw("new secret"), http.StatusNoContent},
	}
	for _, s := range steps {
		rec := do(t, router, http.MethodPost, s.path, s.body)
		if rec.Code != s.want {
			t.Fatalf("POST %s (%v) = %d, want %d", s.path, s.body, rec.Code, s.want)
		}
	}

	rec := do(t, router, http.MethodGet, "/api/safemode", nil)
	var state map[string]bool
	decode(t, rec, &state)
	if state["enabled"] {
		t.Error("Safe mode should be disabled")
	}
}

func TestRoutes_StoreFailure(t *testing.T) {
	db := setupTestDB(t)
	log := logger.Discard()
	h := NewHandler(query.NewService(db), app.NewReadingService(db, log), app.NewSafeModeService(db, log), &stubResetter{}, &stubSyncer{}, log)
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	_ = db.Close()

	for _, path := range []string{
		"/api/manhwas/latest",
		"/api/history",
		"/api/search?q=tower",
		"/api/genres",
	} {
		rec := do(t, router, http.MethodGet, path, nil)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("GET %s = %d, want 500", path, rec.Code)
		}
	}

	// Bad paging is still the caller's fault.
	rec := do(t, router, http.MethodGet, "/api/manhwas/latest?limit=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", rec.Code)
	}
}

func TestRoutes_Reset(t *testing.T) {
	_, router, _, resetter := newTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/reset", map[string]bool{"include_private": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset = %d: %s", rec.Code, rec.Body.String())
	}
	if !resetter.includePrivate {
		t.Error("include_private was not passed through")
	}
}
