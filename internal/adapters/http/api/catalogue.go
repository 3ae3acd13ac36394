// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/marquee/internal/app"
	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/pkg/logger"
)

// CatalogueDependencies defines the catalogue-wide operations.
type CatalogueDependencies interface {
	Refresh(ctx context.Context) error
	Generation(ctx context.Context) uint64
	Count(ctx context.Context) int
	Companies(ctx context.Context) []model.Company
}

// CatalogueHandler handles refresh and company requests.
type CatalogueHandler struct {
	deps   CatalogueDependencies
	logger logger.Logger
}

// NewCatalogueHandler creates a new catalogue handler.
func NewCatalogueHandler(deps CatalogueDependencies, l logger.Logger) *CatalogueHandler {
	return &CatalogueHandler{deps: deps, logger: l}
}

// HandleRefresh handles POST /refresh requests.
func (h *CatalogueHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"

	ctx := r.Context()
	if err := h.deps.Refresh(ctx); err != nil {
		h.logger.Warn(ctx, "refresh request failed",
			logger.String("requestID", RequestIDFromContext(ctx)),
			logger.Error(err),
		)
		if errors.Is(err, service.ErrRefreshAbandoned) {
			writeError(w, http.StatusServiceUnavailable, "refresh_pending", fmt.Errorf("%s: %w", op, err))
			return
		}
		writeError(w, http.StatusBadGateway, "fetch_failed", fmt.Errorf("%s: %w: %v", op, ErrUpstream, err))
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Generation: h.deps.Generation(ctx),
		Films:      h.deps.Count(ctx),
		Companies:  len(h.deps.Companies(ctx)),
	})
}

// HandleCompanies handles GET /companies requests.
func (h *CatalogueHandler) HandleCompanies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Companies(r.Context()))
}
