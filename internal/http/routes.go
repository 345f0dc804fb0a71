package httpapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/http/dto"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

func (h *Handler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	out, ok := h.Outcome()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "startup still running")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) LatestManhwas(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, err := h.Query.LatestUpdated(r.Context(), p.Offset, p.Limit)
	if err != nil {
		h.respondServiceError(w, err, "latest")
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPage(items, p))
}

func (h *Handler) PopularManhwas(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, err := h.Query.MostViewed(r.Context(), p.Offset, p.Limit)
	if err != nil {
		h.respondServiceError(w, err, "popular")
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPage(items, p))
}

func (h *Handler) RandomManhwa(w http.ResponseWriter, r *http.Request) {
	id, ok, err := h.Query.RandomManhwaID(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "random")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "catalog is empty")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *Handler) GetManhwa(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.Query.Manhwa(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "manhwa")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *Handler) ListChapters(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	chapters, err := h.Query.Chapters(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "chapters")
		return
	}
	respondJSON(w, http.StatusOK, chapters)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}
	if err := h.Reading.SetStatus(r.Context(), id, req.Status); err != nil {
		h.respondServiceError(w, err, "set_status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Reading.ClearStatus(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "clear_status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordRead(w http.ResponseWriter, r *http.Request) {
	manhwaID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	chapterID, ok := parseIDParam(w, r, "chapterID")
	if !ok {
		return
	}
	var req dto.ReadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}
	if err := h.Reading.RecordRead(r.Context(), manhwaID, chapterID, req.Images); err != nil {
		h.respondServiceError(w, err, "record_read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) NextChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	chapter, err := h.Reading.NextChapter(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "next_chapter")
		return
	}
	respondJSON(w, http.StatusOK, chapter)
}

func (h *Handler) PreviousChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	chapter, err := h.Reading.PreviousChapter(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "previous_chapter")
		return
	}
	respondJSON(w, http.StatusOK, chapter)
}

func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Query.Genres(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "genres")
		return
	}
	respondJSON(w, http.StatusOK, genres)
}

func (h *Handler) GenreManhwas(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, err := h.Query.ByGenre(r.Context(), id, p.Offset, p.Limit)
	if err != nil {
		h.respondServiceError(w, err, "genre_manhwas")
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPage(items, p))
}

// AuthorManhwas is not paginated; an author's list is small.
func (h *Handler) AuthorManhwas(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	items, err := h.Query.ByAuthor(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "author_manhwas")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) StatusManhwas(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseReadStatus(chi.URLParam(r, "status"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, err := h.Query.ByReadingStatus(r.Context(), status, p.Offset, p.Limit)
	if err != nil {
		h.respondServiceError(w, err, "status_manhwas")
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPage(items, p))
}

func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.Query.Collections(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "collections")
		return
	}
	respondJSON(w, http.StatusOK, cols)
}

func (h *Handler) CollectionManhwas(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	items, err := h.Query.CollectionManhwas(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "collection_manhwas")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, err := h.Query.ReadingHistory(r.Context(), p.Offset, p.Limit)
	if err != nil {
		h.respondServiceError(w, err, "history")
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPage(items, p))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Reading.Stats(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	items, err := h.Query.Search(r.Context(), r.URL.Query().Get("q"), p.Offset, p.Limit)
	if err != nil {
		h.respondServiceError(w, err, "search")
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPage(items, p))
}

func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	body, err := h.Query.Text(r.Context(), key)
	if err != nil {
		h.respondServiceError(w, err, "text")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"key": key, "body": body})
}

type syncStateResponse struct {
	State     syncer.State `json:"state"`
	LastError string       `json:"last_error,omitempty"`
}

func (h *Handler) SyncState(w http.ResponseWriter, r *http.Request) {
	resp := syncStateResponse{State: h.Sync.State()}
	if err := h.Sync.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.Sync.Sync(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "sync")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) ResetApp(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := h.Reset.ResetApp(r.Context(), req.IncludePrivate)
	if err != nil {
		h.respondServiceError(w, err, "reset")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) SafeModeState(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.SafeMode.Enabled(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "safemode")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

func (h *Handler) EnableSafeMode(w http.ResponseWriter, r *http.Request) {
	req, ok := h.passwordRequest(w, r)
	if !ok {
		return
	}
	if err := h.SafeMode.Enable(r.Context(), req.Password); err != nil {
		h.respondServiceError(w, err, "safemode_enable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) VerifySafeMode(w http.ResponseWriter, r *http.Request) {
	req, ok := h.passwordRequest(w, r)
	if !ok {
		return
	}
	if err := h.SafeMode.Verify(r.Context(), req.Password); err != nil {
		h.respondServiceError(w, err, "safemode_verify")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DisableSafeMode(w http.ResponseWriter, r *http.Request) {
	req, ok := h.passwordRequest(w, r)
	if !ok {
		return
	}
	if err := h.SafeMode.Disable(r.Context(), req.Password); err != nil {
		h.respondServiceError(w, err, "safemode_disable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangeSafeModePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}
	if err := h.SafeMode.ChangePassword(r.Context(), req.Current, req.Password); err != nil {
		h.respondServiceError(w, err, "safemode_password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) passwordRequest(w http.ResponseWriter, r *http.Request) (dto.PasswordRequest, bool) {
	var req dto.PasswordRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	if errs := req.Validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return req, false
	}
	return req, true
}
