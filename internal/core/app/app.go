package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/core/query"
)

// Source defines the remote operations the collector depends on (port).
type Source interface {
	SearchItems(ctx context.Context, q query.Query) ([]*domain.Item, error)
	GetPullRequest(ctx context.Context, repo string, number int) (*domain.Item, error)
	ListReviews(ctx context.Context, repo string, number int) ([]domain.Review, error)
}

// AgendaProvider resolves an event URL into its talk list (port).
type AgendaProvider interface {
	Contributions(ctx context.Context, eventURL string) ([]domain.Contribution, error)
}

// App represents the core application with all business logic.
type App struct {
	source Source
	agenda AgendaProvider
	logger *slog.Logger
}

// NewApp creates a new application instance.
func NewApp(source Source, agenda AgendaProvider, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &App{
		source: source,
		agenda: agenda,
		logger: logger,
	}
}

// Collect gathers and classifies the buckets of every repository. Specs are
// validated before any remote call. Repositories are processed one after
// another and the first error aborts the whole run.
func (a *App) Collect(ctx context.Context, specs []*domain.RepoSpec, window domain.Window) (domain.Result, error) {
	spec := domain.Spec{Repos: specs}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	result := make(domain.Result, len(specs))
	for _, repo := range specs {
		bundle, err := a.collectRepository(ctx, repo, window)
		if err != nil {
			return nil, fmt.Errorf("failed to collect %s: %w", repo.Name, err)
		}

		result[repo.Name] = bundle
	}

	return result, nil
}

// Agenda fetches the contributions of an event.
func (a *App) Agenda(ctx context.Context, eventURL string) ([]domain.Contribution, error) {
	if eventURL == "" || a.agenda == nil {
		return []domain.Contribution{}, nil
	}

	contributions, err := a.agenda.Contributions(ctx, eventURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get agenda: %w", err)
	}

	return contributions, nil
}

func (a *App) collectRepository(
	ctx context.Context,
	spec *domain.RepoSpec,
	window domain.Window,
) (*domain.Bundle, error) {
	logger := a.logger.With("repo", spec.Name)
	bundle := domain.NewBundle(spec)
	dates := query.DateRange{From: window.Since, To: window.Now}

	if spec.DoMergedPRs {
		q := query.MergedPulls(spec.Name, dates, nil, spec.FilterLabels)
		prs, err := a.fetchPulls(ctx, spec, q)
		if err != nil {
			return nil, fmt.Errorf("failed to get merged pull requests: %w", err)
		}
		bundle.MergedPRs = prs
	}

	if spec.DoOpenPRs {
		q := query.OpenItems(spec.Name, query.KindPullRequest, nil, nil, spec.FilterLabels)
		prs, err := a.fetchPulls(ctx, spec, q)
		if err != nil {
			return nil, fmt.Errorf("failed to get open pull requests: %w", err)
		}
		bundle.OpenPRs = prs
	}

	if spec.DoStale {
		q := query.OpenItems(spec.Name, query.KindAny, nil, []string{spec.StaleLabel}, spec.FilterLabels)
		items, err := a.fetchItems(ctx, spec, q)
		if err != nil {
			return nil, fmt.Errorf("failed to get stale items: %w", err)
		}
		bundle.Stale = items
	}

	if spec.DoRecentIssues {
		q := query.OpenItems(spec.Name, query.KindIssue, &dates, nil, spec.FilterLabels)
		items, err := a.fetchItems(ctx, spec, q)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent issues: %w", err)
		}
		bundle.RecentIssues = items
	}

	if spec.NeedsDiscussionLabel != "" {
		q := query.OpenItems(spec.Name, query.KindAny, nil, []string{spec.NeedsDiscussionLabel}, spec.FilterLabels)
		items, err := a.fetchItems(ctx, spec, q)
		if err != nil {
			return nil, fmt.Errorf("failed to get items needing discussion: %w", err)
		}
		bundle.NeedsDiscussion = items
	}

	for _, bucket := range [][]*domain.Item{bundle.OpenPRs, bundle.MergedPRs, bundle.Stale, bundle.RecentIssues} {
		for _, item := range bucket {
			Classify(item, spec)
		}
	}

	if !spec.ShowWIP {
		bundle.OpenPRs = withoutWIP(bundle.OpenPRs)
	}

	logger.Debug("collected repository",
		"merged_prs", len(bundle.MergedPRs),
		"open_prs", len(bundle.OpenPRs),
		"stale", len(bundle.Stale),
		"recent_issues", len(bundle.RecentIssues),
		"needs_discussion", len(bundle.NeedsDiscussion),
	)

	return bundle, nil
}

// fetchItems runs a search and returns the summary records.
func (a *App) fetchItems(ctx context.Context, spec *domain.RepoSpec, q query.Query) ([]*domain.Item, error) {
	a.logger.Debug("searching", "repo", spec.Name, "query", q.String())

	items, err := a.source.SearchItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", q.String(), err)
	}

	return dedupe(withoutFiltered(items, spec.FilterLabels)), nil
}

// fetchPulls runs a search and hydrates every hit into a full pull request
// with its reviews. Hydration is sequential to stay under rate limits.
func (a *App) fetchPulls(ctx context.Context, spec *domain.RepoSpec, q query.Query) ([]*domain.Item, error) {
	hits, err := a.fetchItems(ctx, spec, q)
	if err != nil {
		return nil, err
	}

	prs := make([]*domain.Item, 0, len(hits))
	for _, hit := range hits {
		pr, err := a.source.GetPullRequest(ctx, spec.Name, hit.Number)
		if err != nil {
			return nil, fmt.Errorf("failed to get pull request #%d: %w", hit.Number, err)
		}

		reviews, err := a.source.ListReviews(ctx, spec.Name, hit.Number)
		if err != nil {
			return nil, fmt.Errorf("failed to get reviews for #%d: %w", hit.Number, err)
		}
		pr.Reviews = reviews

		prs = append(prs, pr)
	}

	return withoutFiltered(prs, spec.FilterLabels), nil
}
