// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/internal/domain/review"
	"github.com/okian/marquee/pkg/logger"
)

// Paging and body limits applied when no option overrides them.
const (
	DefaultPageSize = 10
	DefaultMaxPage  = 100

	maxBodyBytes = 64 << 10
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the catalogue service.
type Dependencies interface {
	FilmDependencies
	ReviewDependencies
	CatalogueDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	filmsHandler     *FilmsHandler
	reviewsHandler   *ReviewsHandler
	catalogueHandler *CatalogueHandler
}

type settings struct {
	defaultPageSize int
	maxPageSize     int
	maxReviewLength int
	logger          logger.Logger
}

// Option configures the Server.
type Option func(*settings)

// WithPageSizes sets the default and maximum page size for GET /films.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *settings) {
		if defaultSize > 0 {
			s.defaultPageSize = defaultSize
		}
		if maxSize > 0 {
			s.maxPageSize = maxSize
		}
	}
}

// WithMaxReviewLength sets the longest accepted review, in characters.
func WithMaxReviewLength(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxReviewLength = n
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := settings{
		defaultPageSize: DefaultPageSize,
		maxPageSize:     DefaultMaxPage,
		maxReviewLength: review.DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	if s.defaultPageSize > s.maxPageSize {
		s.defaultPageSize = s.maxPageSize
	}

	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		filmsHandler:     NewFilmsHandler(deps, s.defaultPageSize, s.maxPageSize),
		reviewsHandler:   NewReviewsHandler(deps, s.maxReviewLength, s.logger),
		catalogueHandler: NewCatalogueHandler(deps, s.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /films", MetricsMiddleware(s.filmsHandler.HandleListFilms, "films"))
	mux.HandleFunc("GET /films/{id}", MetricsMiddleware(s.filmsHandler.HandleGetFilm, "film"))
	mux.HandleFunc("POST /films/{id}/reviews", MetricsMiddleware(s.reviewsHandler.HandlePostReview, "reviews"))
	mux.HandleFunc("GET /companies", MetricsMiddleware(s.catalogueHandler.HandleCompanies, "companies"))
	mux.HandleFunc("POST /refresh", MetricsMiddleware(s.catalogueHandler.HandleRefresh, "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// filmPage is the body of GET /films.
type filmPage struct {
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int             `json:"total"`
	Listings []model.Listing `json:"listings"`
}

// refreshResponse is the body of a successful POST /refresh.
type refreshResponse struct {
	Generation uint64 `json:"generation"`
	Films      int    `json:"films"`
	Companies  int    `json:"companies"`
}

// reviewRequest mirrors the OpenAPI schema for POST /films/{id}/reviews.
type reviewRequest struct {
	Review *string `json:"review"`
}
