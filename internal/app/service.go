// Package service provides the catalogue cache facade consumed by the HTTP
// API and the CLI.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/okian/marquee/internal/adapters/repository"
	"github.com/okian/marquee/internal/adapters/upstream"
	"github.com/okian/marquee/internal/domain/listing"
	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/pkg/logger"
	"github.com/okian/marquee/pkg/metrics"
)

const refreshKey = "catalogue"

// Catalogue is the remote source of films and companies and the sink for
// reviews. *upstream.Client implements it.
type Catalogue interface {
	FetchFilms(ctx context.Context) ([]model.Film, error)
	FetchCompanies(ctx context.Context) ([]model.Company, error)
	SubmitReview(ctx context.Context, req upstream.SubmitRequest) (string, error)
}

// Service caches the remote catalogue and derives paged listings from it.
type Service struct {
	mu sync.Mutex

	catalogue Catalogue
	snapshot  atomic.Pointer[repository.Snapshot]
	cache     *repository.ListingCache

	refreshGroup singleflight.Group
	publishMu    sync.Mutex

	// Configuration
	refreshInterval time.Duration
	submitFilmID    bool

	// State
	started bool
	stopCh  chan struct{}
	loopWG  sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRefreshInterval enables periodic background refreshes after Start.
func WithRefreshInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.refreshInterval = interval
		}
	}
}

// WithSubmitFilmID includes the selected film id in review submissions.
// By default only the review text is sent.
func WithSubmitFilmID(enabled bool) Option {
	return func(s *Service) {
		s.submitFilmID = enabled
	}
}

// WithListingCache replaces the default listing cache.
func WithListingCache(c *repository.ListingCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// New constructs a Service in the empty state reading from catalogue.
func New(catalogue Catalogue, opts ...Option) *Service {
	s := &Service{
		catalogue: catalogue,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = repository.NewListingCache()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("catalogue")
	}
	s.snapshot.Store(repository.Empty())
	return s
}

// Start performs the initial refresh and, when configured, starts the
// background refresh loop. A failed initial refresh is logged and leaves
// the service empty.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting catalogue service...")

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "initial catalogue refresh failed, serving empty catalogue", logger.Error(err))
	}

	s.stopCh = make(chan struct{})
	if s.refreshInterval > 0 {
		s.loopWG.Add(1)
		go s.refreshLoop(ctx, s.stopCh)
	}

	s.started = true
	s.logger.Info(ctx, "catalogue service started",
		logger.Uint64("generation", s.Generation(ctx)),
		logger.Int("films", s.Count(ctx)),
		logger.Duration("refreshInterval", s.refreshInterval),
	)
	return nil
}

// Stop ends the background refresh loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping catalogue service...")
	close(s.stopCh)
	s.loopWG.Wait()

	s.started = false
	s.logger.Info(context.Background(), "catalogue service stopped")
}

func (s *Service) refreshLoop(ctx context.Context, stop <-chan struct{}) {
	defer s.loopWG.Done()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn(ctx, "periodic catalogue refresh failed", logger.Error(err))
			}
		}
	}
}

// Refresh fetches films and companies and swaps them in as a new
// generation. On failure the current state is kept and the error wraps
// ErrFetchFailure. Calls overlapping an in-flight refresh wait for it and
// share its result.
//
// The shared refresh ignores caller cancellation. A caller whose context
// ends first gets ErrRefreshAbandoned while the refresh runs on, so the
// generation may still advance after that error is returned.
func (s *Service) Refresh(ctx context.Context) error {
	ch := s.refreshGroup.DoChan(refreshKey, func() (interface{}, error) {
		return nil, s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.RecordRefresh(metrics.ResultShared)
			s.logger.Debug(ctx, "refresh shared with concurrent caller")
		}
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrRefreshAbandoned, ctx.Err())
	}
}

func (s *Service) refresh(ctx context.Context) error {
	start := time.Now()

	var (
		films     []model.Film
		companies []model.Company
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.catalogue.FetchFilms(gctx)
		if err != nil {
			return fmt.Errorf("fetch films: %w", err)
		}
		films = f
		return nil
	})
	g.Go(func() error {
		c, err := s.catalogue.FetchCompanies(gctx)
		if err != nil {
			return fmt.Errorf("fetch companies: %w", err)
		}
		companies = c
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordRefresh(metrics.ResultFailure)
		metrics.RecordErrorByComponent("catalogue", "fetch_failure")
		s.logger.Warn(ctx, "catalogue refresh failed",
			logger.Uint64("generation", s.snapshot.Load().Generation()),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}

	s.publishMu.Lock()
	next := repository.NewSnapshot(s.snapshot.Load().Generation()+1, films, companies)
	s.snapshot.Store(next)
	s.publishMu.Unlock()

	purged := s.cache.Purge(next.Generation())

	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordRefresh(metrics.ResultSuccess)
	metrics.RecordRefreshDuration(ms)
	metrics.UpdateCatalogueSize(next.FilmCount(), next.CompanyCount())
	metrics.UpdateGeneration(next.Generation())

	s.logger.Info(ctx, "catalogue refreshed",
		logger.Uint64("generation", next.Generation()),
		logger.Int("films", next.FilmCount()),
		logger.Int("companies", next.CompanyCount()),
		logger.Int("purgedListings", purged),
		logger.Float64("durationMs", ms),
	)
	return nil
}

// Count returns the number of films in the current generation.
func (s *Service) Count(ctx context.Context) int {
	return s.snapshot.Load().FilmCount()
}

// Generation returns the current generation. Zero means nothing has been
// loaded yet.
func (s *Service) Generation(ctx context.Context) uint64 {
	return s.snapshot.Load().Generation()
}

// FindByID returns the first film whose id equals id.
func (s *Service) FindByID(ctx context.Context, id string) (model.Film, bool) {
	return s.snapshot.Load().Film(id)
}

// ListingFor returns the listing of the first film whose id equals id,
// resolved and cached the same way as ListingsForPage.
func (s *Service) ListingFor(ctx context.Context, id string) (model.Listing, bool) {
	snap := s.snapshot.Load()
	f, ok := snap.Film(id)
	if !ok {
		return model.Listing{}, false
	}
	return s.listingFor(snap, f), true
}

// Companies returns the current company collection.
func (s *Service) Companies(ctx context.Context) []model.Company {
	return s.snapshot.Load().Companies()
}

// ListingsForPage returns the listings for films
// [page*pageSize, page*pageSize+pageSize) of the current generation.
// A page past the end yields an empty slice.
func (s *Service) ListingsForPage(ctx context.Context, page, pageSize int) ([]model.Listing, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	snap := s.snapshot.Load()
	total := snap.FilmCount()

	// page > total/pageSize implies page*pageSize > total without overflowing
	if page > total/pageSize {
		return []model.Listing{}, nil
	}
	start := page * pageSize
	end := total
	if pageSize < total-start {
		end = start + pageSize
	}

	films := snap.FilmsRange(start, end)
	out := make([]model.Listing, 0, len(films))
	for _, f := range films {
		out = append(out, s.listingFor(snap, f))
	}
	return out, nil
}

func (s *Service) listingFor(snap *repository.Snapshot, f model.Film) model.Listing {
	if snap.IsDuplicate(f.ID) {
		return listing.Build(f, snap)
	}
	gen := snap.Generation()
	if l, ok := s.cache.Get(gen, f.ID); ok {
		return l
	}
	return s.cache.Put(gen, f.ID, listing.Build(f, snap))
}

// SubmitReview forwards text to the remote review endpoint. It never
// returns an error: every failure is reported as Success false.
func (s *Service) SubmitReview(ctx context.Context, filmID, text string) model.ReviewResponse {
	req := upstream.SubmitRequest{Review: text}
	if s.submitFilmID {
		req.FilmID = filmID
	}

	msg, err := s.catalogue.SubmitReview(ctx, req)
	if err != nil {
		metrics.RecordReviewSubmission(metrics.ResultFailure)
		s.logger.Warn(ctx, "review submission failed",
			logger.String("filmID", filmID),
			logger.Error(err),
		)
		return model.ReviewResponse{Success: false}
	}

	metrics.RecordReviewSubmission(metrics.ResultSuccess)
	s.logger.Info(ctx, "review submitted", logger.String("filmID", filmID))
	return model.ReviewResponse{Success: true, Message: msg}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	snap := s.snapshot.Load()
	cache := s.cache.Stats()

	stats := map[string]interface{}{
		"started":         started,
		"generation":      snap.Generation(),
		"films":           snap.FilmCount(),
		"companies":       snap.CompanyCount(),
		"listingCache":    cache.Entries,
		"cacheHits":       cache.Hits,
		"cacheMisses":     cache.Misses,
		"refreshInterval": s.refreshInterval.String(),
		"submitFilmID":    s.submitFilmID,
	}
	if snap.Generation() > 0 {
		stats["refreshedAt"] = snap.BuiltAt().UTC().Format(time.RFC3339)
	}

	metrics.UpdateCatalogueSize(snap.FilmCount(), snap.CompanyCount())
	metrics.UpdateListingCacheSize(cache.Entries)
	return stats
}
