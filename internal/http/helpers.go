package httpapp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/http/dto"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

func respondValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   dto.ToResponse(errs),
		Details: dto.ToMap(errs),
	})
}

// respondServiceError maps domain errors onto status codes. Anything
// unrecognised, including store read failures inside a QueryError, is
// logged and hidden behind a 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	var syncErr *domain.SyncError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidPage),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrPasswordTooShort):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, syncer.ErrSyncInProgress):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrSafeModeLocked):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrSafeModeNotEnabled),
		errors.Is(err, domain.ErrSafeModeEnabled):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &syncErr), errors.Is(err, domain.ErrVersionRegression):
		h.Logger.Warn("Sync failed", "op", op, "error", err)
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		h.Logger.Error("Request failed", "op", op, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseIDParam reads a positive integer URL parameter. On failure it has
// already written a 400.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func parsePage(w http.ResponseWriter, r *http.Request) (dto.PageParams, bool) {
	p, errs := dto.ParsePage(r.URL.Query())
	if len(errs) > 0 {
		respondValidation(w, errs)
		return p, false
	}
	return p, true
}

// decodeBody fills v from a JSON body. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
