package httpapp

import (
	"context"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/toonshelf/internal/app"
	"github.com/cesargomez89/toonshelf/internal/bootstrap"
	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/query"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

type Syncer interface {
	Sync(ctx context.Context) (*syncer.Report, error)
	State() syncer.State
	LastError() error
}

type Resetter interface {
	ResetApp(ctx context.Context, includePrivate bool) (*syncer.Report, error)
}

type Handler struct {
	Query    *query.Service
	Reading  *app.ReadingService
	SafeMode *app.SafeModeService
	Reset    Resetter
	Sync     Syncer
	Logger   *logger.Logger

	mu      sync.RWMutex
	outcome *bootstrap.Outcome
}

func NewHandler(q *query.Service, reading *app.ReadingService, safe *app.SafeModeService, reset Resetter, engine Syncer, log *logger.Logger) *Handler {
	return &Handler{
		Query:    q,
		Reading:  reading,
		SafeMode: safe,
		Reset:    reset,
		Sync:     engine,
		Logger:   log.WithComponent("http"),
	}
}

// SetOutcome publishes the result of the startup sequence.
func (h *Handler) SetOutcome(out bootstrap.Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcome = &out
}

func (h *Handler) Outcome() (bootstrap.Outcome, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.outcome == nil {
		return bootstrap.Outcome{}, false
	}
	return *h.outcome, true
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/bootstrap", h.Bootstrap)

		r.Get("/manhwas/latest", h.LatestManhwas)
		r.Get("/manhwas/popular", h.PopularManhwas)
		r.Get("/manhwas/random", h.RandomManhwa)
		r.Get("/manhwas/{id}", h.GetManhwa)
		r.Get("/manhwas/{id}/chapters", h.ListChapters)
		r.Put("/manhwas/{id}/status", h.SetStatus)
		r.Delete("/manhwas/{id}/status", h.ClearStatus)
		r.Post("/manhwas/{id}/chapters/{chapterID}/read", h.RecordRead)

		r.Get("/chapters/{id}/next", h.NextChapter)
		r.Get("/chapters/{id}/previous", h.PreviousChapter)

		r.Get("/genres", h.ListGenres)
		r.Get("/genres/{id}/manhwas", h.GenreManhwas)
		r.Get("/authors/{id}/manhwas", h.AuthorManhwas)
		r.Get("/status/{status}/manhwas", h.StatusManhwas)
		r.Get("/collections", h.ListCollections)
		r.Get("/collections/{id}/manhwas", h.CollectionManhwas)

		r.Get("/history", h.History)
		r.Get("/stats", h.Stats)
		r.Get("/search", h.Search)
		r.Get("/text/{key}", h.Text)

		r.Get("/sync", h.SyncState)
		r.Post("/sync", h.TriggerSync)
		r.Post("/reset", h.ResetApp)

		r.Get("/safemode", h.SafeModeState)
		r.Post("/safemode/enable", h.EnableSafeMode)
		r.Post("/safemode/verify", h.VerifySafeMode)
		r.Post("/safemode/disable", h.DisableSafeMode)
		r.Post("/safemode/password", h.ChangeSafeModePassword)
	})
}
