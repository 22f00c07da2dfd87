package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/denchenko/mtng/internal/adapters/primary/cli"
	"github.com/denchenko/mtng/internal/adapters/secondary/cache"
	"github.com/denchenko/mtng/internal/adapters/secondary/indico"
	"github.com/denchenko/mtng/internal/adapters/secondary/source/cached"
	"github.com/denchenko/mtng/internal/adapters/secondary/source/github"
	"github.com/denchenko/mtng/internal/adapters/secondary/source/gitlab"
	"github.com/denchenko/mtng/internal/config"
	"github.com/denchenko/mtng/internal/core/app"
	"github.com/denchenko/mtng/internal/event"
	"github.com/denchenko/mtng/internal/log"
	do "github.com/samber/do/v2"
	"github.com/spf13/cobra"
	glclient "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"
)

var PrimaryPackage = do.Package(
	do.Lazy[*cobra.Command](cli.Command),
)

var SecondaryPackage = do.Package(
	do.Lazy[*slog.Logger](NewLogger),
	do.Lazy[*rate.Limiter](NewRateLimiter),
	do.Lazy[*glclient.Client](NewGitLabClient),
	do.Lazy[*gitlab.Source](NewGitLabSource),
	do.Lazy[*github.Source](NewGitHubSource),
	do.Lazy[*cache.DiskCache](NewDiskCache),
	do.Lazy[cache.Cache](NewCache),
	do.Lazy[app.Source](NewSource),
	do.Lazy[app.AgendaProvider](NewAgendaProvider),
)

// NewLogger creates the process logger. It writes to stderr.
func NewLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return log.New(os.Stderr, &log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

// NewRateLimiter creates the limiter shared by the remote sources.
func NewRateLimiter(i do.Injector) (*rate.Limiter, error) {
	cfg := do.MustInvoke[*config.Config](i)

	if cfg.RateInterval == 0 {
		return rate.NewLimiter(rate.Inf, cfg.RateBurst), nil
	}

	return rate.NewLimiter(rate.Every(cfg.RateInterval), cfg.RateBurst), nil
}

// NewGitLabClient creates a new GitLab client.
func NewGitLabClient(i do.Injector) (*glclient.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	limiter := do.MustInvoke[*rate.Limiter](i)

	opts := []glclient.ClientOptionFunc{glclient.WithCustomLimiter(limiter)}
	if cfg.BaseURL != "" {
		opts = append(opts, glclient.WithBaseURL(cfg.BaseURL))
	}

	client, err := glclient.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	return client, nil
}

// NewGitLabSource creates the GitLab remote source.
func NewGitLabSource(i do.Injector) (*gitlab.Source, error) {
	client := do.MustInvoke[*glclient.Client](i)

	return gitlab.NewSource(client), nil
}

// NewGitHubSource creates the GitHub remote source.
func NewGitHubSource(i do.Injector) (*github.Source, error) {
	cfg := do.MustInvoke[*config.Config](i)
	limiter := do.MustInvoke[*rate.Limiter](i)

	source, err := github.NewSource(github.NewHTTPClient(context.Background(), cfg.Token), cfg.BaseURL, limiter)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	return source, nil
}

// NewDiskCache opens the persistent cache in the configured directory.
func NewDiskCache(i do.Injector) (*cache.DiskCache, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return cache.Open(cfg.CacheDir)
}

// NewCache creates the response cache. With caching disabled it is
// process-local.
func NewCache(i do.Injector) (cache.Cache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.NoCache {
		return cache.NewInMemoryCache(), nil
	}

	return do.Invoke[*cache.DiskCache](i)
}

// NewSource creates a source adapter that implements app.Source.
// It wraps the configured provider with a cached source.
func NewSource(i do.Injector) (app.Source, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	var (
		source app.Source
		err    error
	)

	switch cfg.Provider {
	case config.ProviderGitLab:
		source, err = do.Invoke[*gitlab.Source](i)
	default:
		source, err = do.Invoke[*github.Source](i)
	}
	if err != nil {
		return nil, err
	}

	responseCache, err := do.Invoke[cache.Cache](i)
	if err != nil {
		return nil, err
	}

	logger := do.MustInvoke[*slog.Logger](i)

	namespace := cached.Namespace(cfg.Provider, cfg.BaseURL)

	return cached.NewSource(source, responseCache, namespace, cfg.CacheTTL, logger.With("component", "cache")), nil
}

// NewAgendaProvider creates the Indico agenda provider.
func NewAgendaProvider(i do.Injector) (app.AgendaProvider, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i).With("component", "indico")

	resolver, err := event.NewResolver(cfg.EventExportURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create event resolver: %w", err)
	}

	return indico.NewProvider(indico.NewClient(logger), resolver, logger), nil
}
