package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/store"
)

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test_app.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	return db
}

// seedSeries stores manhwa 1 with chapters 1..3 (ids 101..103) and manhwa 2
// with a single chapter 201.
func seedSeries(t *testing.T, db *store.DB) {
	t.Helper()
	ctx := context.Background()
	batches := []*domain.Batch{
		{Kind: domain.KindManhwas, Manhwas: []domain.Manhwa{{ID: 1, Title: "One"}, {ID: 2, Title: "Two"}}},
		{Kind: domain.KindChapters, Chapters: []domain.Chapter{
			{ID: 103, ManhwaID: 1, Number: 3},
			{ID: 101, ManhwaID: 1, Number: 1},
			{ID: 102, ManhwaID: 1, Number: 2},
			{ID: 201, ManhwaID: 2, Number: 1},
		}},
	}
	for _, b := range batches {
		if _, err := db.UpsertBatch(ctx, b); err != nil {
			t.Fatalf("UpsertBatch %s failed: %v", b.Kind, err)
		}
	}
}

var fixedNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func fixedClock(svc *ReadingService) {
	base := fixedNow
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}

func discard() *logger.Logger {
	return logger.Discard()
}
