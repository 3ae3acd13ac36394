// Package cli implements the marqueectl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/okian/marquee/internal/adapters/upstream"
	service "github.com/okian/marquee/internal/app"
	"github.com/okian/marquee/internal/config"
	"github.com/okian/marquee/pkg/logger"
)

type commandContext struct {
	configFlag  *string
	baseURLFlag *string
	verbose     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	svcOnce sync.Once
	svc     *service.Service
	svcErr  error
}

func newCommandContext(configFlag, baseURLFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		baseURLFlag: baseURLFlag,
		verbose:     verbose,
	}
}

// ensureConfig loads configuration once. --config takes precedence over
// MARQUEE_CONFIG and --base-url over every other source.
func (c *commandContext) ensureConfig(ctx context.Context, stderr io.Writer) (*config.Config, error) {
	c.configOnce.Do(func() {
		if path := strings.TrimSpace(deref(c.configFlag)); path != "" {
			if err := os.Setenv(config.EnvConfigKey, path); err != nil {
				c.configErr = fmt.Errorf("set config path: %w", err)
				return
			}
		}
		cfg, err := config.Load(ctx)
		if err != nil {
			c.configErr = err
			return
		}
		if u := strings.TrimSpace(deref(c.baseURLFlag)); u != "" {
			cfg.BaseURL = u
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}

		if err := logger.Init(logger.WithOutput(stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
			c.configErr = err
			return
		}
		level := "warn"
		if c.verbose != nil && *c.verbose {
			level = "debug"
		}
		if err := logger.SetLevelString(level); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// catalogue returns a refreshed service.
func (c *commandContext) catalogue(ctx context.Context, stderr io.Writer) (*service.Service, *config.Config, error) {
	cfg, err := c.ensureConfig(ctx, stderr)
	if err != nil {
		return nil, nil, err
	}
	c.svcOnce.Do(func() {
		client, err := upstream.New(cfg.BaseURL,
			upstream.WithPaths(cfg.FilmsPath, cfg.CompaniesPath, cfg.SubmitReviewPath),
			upstream.WithTimeout(cfg.HTTPTimeout()),
			upstream.WithLogger(logger.Named("upstream")),
		)
		if err != nil {
			c.svcErr = err
			return
		}
		svc := service.New(client,
			service.WithLogger(logger.Named("catalogue")),
			service.WithSubmitFilmID(cfg.SubmitFilmID),
		)
		if err := svc.Refresh(ctx); err != nil {
			c.svcErr = fmt.Errorf("load catalogue from %s: %w", cfg.BaseURL, err)
			return
		}
		c.svc = svc
	})
	return c.svc, cfg, c.svcErr
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
