package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/denchenko/mtng/internal/adapters/secondary/cache"
	"github.com/denchenko/mtng/internal/core/app"
	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/core/query"
)

const (
	opSearchItems    = "search_items"
	opGetPullRequest = "get_pull_request"
	opListReviews    = "list_reviews"
)

// DefaultTTL is how long a fetched response stays fresh.
const DefaultTTL = 300 * time.Second

// Source wraps an app.Source with caching functionality. Every remote call
// is cached independently. Cache failures are logged and read as misses.
// Keys are scoped by namespace so that sources of different hosts sharing
// one cache never see each other's entries.
type Source struct {
	source    app.Source
	cache     cache.Cache
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// Namespace identifies a remote host for cache scoping.
func Namespace(provider, baseURL string) string {
	return provider + "|" + baseURL
}

// NewSource creates a new cached source instance.
func NewSource(source app.Source, c cache.Cache, namespace string, ttl time.Duration, logger *slog.Logger) *Source {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Source{
		source:    source,
		cache:     c,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
	}
}

// SearchItems runs a search, served from the cache when fresh.
func (s *Source) SearchItems(ctx context.Context, q query.Query) ([]*domain.Item, error) {
	return fetch(s, opSearchItems, []any{q.Encode()}, func() ([]*domain.Item, error) {
		items, err := s.source.SearchItems(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to search items: %w", err)
		}

		return items, nil
	})
}

// GetPullRequest retrieves a pull request, served from the cache when fresh.
func (s *Source) GetPullRequest(ctx context.Context, repo string, number int) (*domain.Item, error) {
	return fetch(s, opGetPullRequest, []any{repo, number}, func() (*domain.Item, error) {
		pr, err := s.source.GetPullRequest(ctx, repo, number)
		if err != nil {
			return nil, fmt.Errorf("failed to get pull request: %w", err)
		}

		return pr, nil
	})
}

// ListReviews lists the reviews of a pull request, served from the cache when fresh.
func (s *Source) ListReviews(ctx context.Context, repo string, number int) ([]domain.Review, error) {
	return fetch(s, opListReviews, []any{repo, number}, func() ([]domain.Review, error) {
		reviews, err := s.source.ListReviews(ctx, repo, number)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews: %w", err)
		}

		return reviews, nil
	})
}

func fetch[T any](s *Source, op string, args []any, load func() (T, error)) (T, error) {
	logger := s.logger.With("op", op, "args", args)

	key, err := cache.Key(op, append([]any{s.namespace}, args...)...)
	if err != nil {
		logger.Warn("failed to derive cache key", "error", err)
		return load()
	}

	if data, ok, err := s.cache.Get(key); err != nil {
		logger.Warn("failed to read cache", "error", err)
	} else if ok {
		var value T
		decodeErr := json.Unmarshal(data, &value)
		if decodeErr == nil {
			logger.Debug("cache hit")
			return value, nil
		}

		logger.Warn("discarding corrupt cache entry", "error", decodeErr)
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("failed to encode cache entry", "error", err)
		return value, nil
	}

	if err := s.cache.Put(key, data, s.ttl); err != nil {
		logger.Warn("failed to write cache", "error", err)
	}

	return value, nil
}
