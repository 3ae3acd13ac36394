// Package upstream is the HTTP client for the remote film catalogue service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/pkg/logger"
	"github.com/okian/marquee/pkg/metrics"
)

// Default endpoint layout of the catalogue service.
const (
	DefaultBaseURL          = "https://giddy-beret-cod.cyclic.app"
	DefaultFilmsPath        = "/movies"
	DefaultCompaniesPath    = "/movieCompanies"
	DefaultSubmitReviewPath = "/submitReview"

	// DefaultMaxBodyBytes caps a response body. Larger bodies fail with
	// ErrBodyTooLarge.
	DefaultMaxBodyBytes int64 = 32 << 20
)

// Endpoint labels used in logs and metrics.
const (
	EndpointFilms        = "films"
	EndpointCompanies    = "companies"
	EndpointSubmitReview = "submit_review"
)

// SubmitRequest is the body posted to the review endpoint. FilmID is only
// serialized when set.
type SubmitRequest struct {
	Review string `json:"review"`
	FilmID string `json:"filmId,omitempty"`
}

type submitResponse struct {
	Message *string `json:"message"`
}

// Client talks to the catalogue service.
type Client struct {
	baseURL       string
	filmsPath     string
	companiesPath string
	submitPath    string
	httpClient    *http.Client
	maxBodyBytes  int64
	logger        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every request. Zero keeps requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout, Transport: c.httpClient.Transport}
		}
	}
}

// WithMaxBodyBytes sets the largest response body accepted.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithPaths overrides the endpoint paths. Empty values keep the defaults.
func WithPaths(films, companies, submitReview string) Option {
	return func(c *Client) {
		if films != "" {
			c.filmsPath = films
		}
		if companies != "" {
			c.companiesPath = companies
		}
		if submitReview != "" {
			c.submitPath = submitReview
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a catalogue client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalogue base url required")
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		filmsPath:     DefaultFilmsPath,
		companiesPath: DefaultCompaniesPath,
		submitPath:    DefaultSubmitReviewPath,
		httpClient:    &http.Client{},
		maxBodyBytes:  DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	return c, nil
}

// FetchFilms returns the full film collection.
func (c *Client) FetchFilms(ctx context.Context) ([]model.Film, error) {
	return getCollection[model.Film](ctx, c, EndpointFilms, c.filmsPath)
}

// FetchCompanies returns the full company collection.
func (c *Client) FetchCompanies(ctx context.Context) ([]model.Company, error) {
	return getCollection[model.Company](ctx, c, EndpointCompanies, c.companiesPath)
}

// SubmitReview posts a review and returns the acknowledgement message.
func (c *Client) SubmitReview(ctx context.Context, req SubmitRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal review: %w", err)
	}

	body, err := c.do(ctx, EndpointSubmitReview, http.MethodPost, c.submitPath, payload)
	if err != nil {
		return "", err
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDecode, EndpointSubmitReview, err)
	}
	if resp.Message == nil {
		return "", fmt.Errorf("%w: %s: missing message", ErrDecode, EndpointSubmitReview)
	}
	return *resp.Message, nil
}

func getCollection[T any](ctx context.Context, c *Client, endpoint, path string) ([]T, error) {
	body, err := c.do(ctx, endpoint, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, endpoint, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s: expected an array, got null", ErrDecode, endpoint)
	}
	return out, nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, endpoint, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: build request: %v", ErrTransport, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", msSince(start))
		metrics.RecordErrorByComponent("upstream", "transport")
		c.logger.Warn(ctx, "upstream request failed",
			logger.String("endpoint", endpoint),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, endpoint, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), msSince(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordErrorByComponent("upstream", "status")
		c.logger.Warn(ctx, "upstream returned non-success status",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrTransport, endpoint, readErr)
	}
	if int64(len(body)) > c.maxBodyBytes {
		metrics.RecordErrorByComponent("upstream", "body_too_large")
		return nil, fmt.Errorf("%w: %s: over %d bytes", ErrBodyTooLarge, endpoint, c.maxBodyBytes)
	}

	c.logger.Debug(ctx, "upstream request done",
		logger.String("endpoint", endpoint),
		logger.Int("status", resp.StatusCode),
		logger.Int("bytes", len(body)),
	)
	return body, nil
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
