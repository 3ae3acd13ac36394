// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/internal/domain/review"
	"github.com/okian/marquee/pkg/logger"
)

// ReviewDependencies defines the operations used by the review route.
type ReviewDependencies interface {
	FindByID(ctx context.Context, id string) (model.Film, bool)
	SubmitReview(ctx context.Context, filmID, text string) model.ReviewResponse
}

// ReviewsHandler handles review submissions.
type ReviewsHandler struct {
	deps      ReviewDependencies
	maxLength int
	logger    logger.Logger
}

// NewReviewsHandler creates a new reviews handler.
func NewReviewsHandler(deps ReviewDependencies, maxLength int, l logger.Logger) *ReviewsHandler {
	return &ReviewsHandler{deps: deps, maxLength: maxLength, logger: l}
}

// HandlePostReview handles POST /films/{id}/reviews requests.
func (h *ReviewsHandler) HandlePostReview(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_review"

	id := r.PathValue("id")
	if _, ok := h.deps.FindByID(r.Context(), id); !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%s: %w: %q", op, ErrNotFound, id))
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %v", op, ErrBadRequest, err))
		return
	}
	if req.Review == nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing review", op, ErrBadRequest))
		return
	}

	if err := review.Validate(*req.Review, h.maxLength); err != nil {
		code := "invalid_review"
		if errors.Is(err, review.ErrEmpty) {
			code = "empty_review"
		} else if errors.Is(err, review.ErrTooLong) {
			code = "review_too_long"
		}
		writeError(w, http.StatusBadRequest, code, errors.New(review.Message(err, h.maxLength)))
		return
	}

	resp := h.deps.SubmitReview(r.Context(), id, *req.Review)
	if !resp.Success {
		h.logger.Warn(r.Context(), "review rejected upstream",
			logger.String("filmID", id),
			logger.String("requestID", RequestIDFromContext(r.Context())),
		)
		writeJSON(w, http.StatusBadGateway, model.ReviewResponse{Success: false, Message: review.FailureMessage})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
