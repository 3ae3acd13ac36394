// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a dotenv file, a config file and the environment on top.
// - Errors wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BaseURL is the root of the remote catalogue service.
	BaseURL string `koanf:"base_url"`

	// Endpoint paths relative to BaseURL.
	FilmsPath        string `koanf:"films_path"`
	CompaniesPath    string `koanf:"companies_path"`
	SubmitReviewPath string `koanf:"submit_review_path"`

	// HTTPTimeoutMS bounds each upstream request. Zero means no timeout.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// RefreshIntervalS enables periodic background refreshes. Zero disables.
	RefreshIntervalS int `koanf:"refresh_interval_s"`

	// DefaultPageSize and MaxPageSize bound GET /films?page_size.
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// MaxReviewLength is the longest review accepted, in characters.
	MaxReviewLength int `koanf:"max_review_length"`

	// SubmitFilmID sends the selected film id along with each review.
	SubmitFilmID bool `koanf:"submit_film_id"`

	// Metric naming. Labels are attached to every exported series.
	MetricsNamespace string            `koanf:"metrics_namespace"`
	MetricsSubsystem string            `koanf:"metrics_subsystem"`
	MetricsBuckets   []float64         `koanf:"metrics_buckets_ms"`
	MetricsLabels    map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		BaseURL:          "https://giddy-beret-cod.cyclic.app",
		FilmsPath:        "/movies",
		CompaniesPath:    "/movieCompanies",
		SubmitReviewPath: "/submitReview",
		HTTPTimeoutMS:    0,
		RefreshIntervalS: 0,
		DefaultPageSize:  10,
		MaxPageSize:      100,
		MaxReviewLength:  100,
		SubmitFilmID:     false,
		MetricsNamespace: "marquee",
		MetricsSubsystem: "catalogue",
	}
}

// HTTPTimeout returns the upstream request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// RefreshInterval returns the background refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalS) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base_url must be an absolute http(s) url, got %q", ErrInvalidConfig, c.BaseURL)
	}
	for key, p := range map[string]string{
		"films_path":         c.FilmsPath,
		"companies_path":     c.CompaniesPath,
		"submit_review_path": c.SubmitReviewPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%w: %s must start with /, got %q", ErrInvalidConfig, key, p)
		}
	}
	switch {
	case c.HTTPTimeoutMS < 0:
		return fmt.Errorf("%w: http_timeout_ms must not be negative", ErrInvalidConfig)
	case c.RefreshIntervalS < 0:
		return fmt.Errorf("%w: refresh_interval_s must not be negative", ErrInvalidConfig)
	case c.DefaultPageSize < 1:
		return fmt.Errorf("%w: default_page_size must be positive", ErrInvalidConfig)
	case c.MaxPageSize < c.DefaultPageSize:
		return fmt.Errorf("%w: max_page_size must be at least default_page_size", ErrInvalidConfig)
	case c.MaxReviewLength < 1:
		return fmt.Errorf("%w: max_review_length must be positive", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsBuckets); i++ {
		if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
			return fmt.Errorf("%w: metrics_buckets_ms must be strictly increasing", ErrInvalidConfig)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
