// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/marquee/internal/domain/model"
)

// FilmDependencies defines the read operations used by the film routes.
type FilmDependencies interface {
	Count(ctx context.Context) int
	FindByID(ctx context.Context, id string) (model.Film, bool)
	ListingsForPage(ctx context.Context, page, pageSize int) ([]model.Listing, error)
}

// FilmsHandler handles film listing and lookup requests.
type FilmsHandler struct {
	deps            FilmDependencies
	defaultPageSize int
	maxPageSize     int
}

// NewFilmsHandler creates a new films handler.
func NewFilmsHandler(deps FilmDependencies, defaultPageSize, maxPageSize int) *FilmsHandler {
	return &FilmsHandler{
		deps:            deps,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// HandleListFilms handles GET /films?page=P&page_size=N requests.
func (h *FilmsHandler) HandleListFilms(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_films"

	q := r.URL.Query()
	page, err := intParam(q, "page", 0)
	if err != nil || page < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: page must be a non-negative integer", op, ErrBadRequest))
		return
	}
	pageSize, err := intParam(q, "page_size", h.defaultPageSize)
	if err != nil || pageSize < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: page_size must be a positive integer", op, ErrBadRequest))
		return
	}
	if pageSize > h.maxPageSize {
		writeError(w, http.StatusBadRequest, "page_size_exceeded", fmt.Errorf("%s: %w: page_size must be at most %d", op, ErrBadRequest, h.maxPageSize))
		return
	}

	listings, err := h.deps.ListingsForPage(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeJSON(w, http.StatusOK, filmPage{
		Page:     page,
		PageSize: pageSize,
		Total:    h.deps.Count(r.Context()),
		Listings: listings,
	})
}

// HandleGetFilm handles GET /films/{id} requests.
func (h *FilmsHandler) HandleGetFilm(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_film"

	id := r.PathValue("id")
	film, ok := h.deps.FindByID(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%s: %w: %q", op, ErrNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, film)
}
