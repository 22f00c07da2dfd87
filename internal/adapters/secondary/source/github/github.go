package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/core/query"
	"github.com/google/go-github/v74/github"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const perPageLimit = 100

// Source implements the app.Source interface for GitHub.
type Source struct {
	client  *github.Client
	limiter *rate.Limiter
}

// NewHTTPClient returns a pooled HTTP client that authenticates every
// request with token. An empty token yields an anonymous client.
func NewHTTPClient(ctx context.Context, token string) *http.Client {
	base := cleanhttp.DefaultPooledClient()
	if token == "" {
		return base
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// NewSource creates a new GitHub source. An empty baseURL targets the public
// API; otherwise it must point at the REST root, e.g. https://ghe.example.com/api/v3/.
func NewSource(httpClient *http.Client, baseURL string, limiter *rate.Limiter) (*Source, error) {
	client := github.NewClient(httpClient)

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}

		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL: %w", err)
		}
		client.BaseURL = u
	}

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &Source{
		client:  client,
		limiter: limiter,
	}, nil
}

// SearchItems runs an issue search and follows pagination to the end.
func (s *Source) SearchItems(ctx context.Context, q query.Query) ([]*domain.Item, error) {
	items := make([]*domain.Item, 0)

	for page := 1; page != 0; {
		path := fmt.Sprintf("search/issues?q=%s&per_page=%d&page=%d", q.Encode(), perPageLimit, page)

		req, err := s.client.NewRequest(http.MethodGet, path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build search request: %w", err)
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}

		var result github.IssuesSearchResult
		resp, err := s.client.Do(ctx, req, &result)
		if err != nil {
			return nil, fmt.Errorf("failed to search issues: %w", classify(resp, err))
		}

		for _, issue := range result.Issues {
			item, err := convertIssue(issue)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		page = resp.NextPage
	}

	return items, nil
}

// GetPullRequest retrieves a pull request with its detail fields.
func (s *Source) GetPullRequest(ctx context.Context, repo string, number int) (*domain.Item, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	pr, resp, err := s.client.PullRequests.Get(ctx, owner, name, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request: %w", classify(resp, err))
	}

	return convertPullRequest(pr)
}

// ListReviews lists every review submitted on a pull request.
func (s *Source) ListReviews(ctx context.Context, repo string, number int) ([]domain.Review, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	reviews := make([]domain.Review, 0)
	opts := &github.ListOptions{PerPage: perPageLimit}

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}

		page, resp, err := s.client.PullRequests.ListReviews(ctx, owner, name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews: %w", classify(resp, err))
		}

		for _, review := range page {
			reviews = append(reviews, convertReview(review))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return reviews, nil
}

// classify marks rate limiting and credential rejections so callers can tell
// them apart. GitHub answers both with 403.
func classify(resp *github.Response, err error) error {
	var (
		rateLimitErr      *github.RateLimitError
		abuseRateLimitErr *github.AbuseRateLimitError
	)
	if errors.As(err, &rateLimitErr) || errors.As(err, &abuseRateLimitErr) {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}

	if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	}

	return err
}

func splitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("%w: repository %q is not owner/name", domain.ErrInvalidSpec, repo)
	}

	return owner, name, nil
}

func convertIssue(issue *github.Issue) (*domain.Item, error) {
	if issue.GetNumber() == 0 || issue.GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("%w: search hit without number or author", domain.ErrMalformedRecord)
	}

	item := &domain.Item{
		Kind:      domain.KindIssue,
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		User:      convertUser(issue.GetUser()),
		Labels:    convertLabels(issue.Labels),
		URL:       issue.GetURL(),
		HTMLURL:   issue.GetHTMLURL(),
		Assignee:  convertAssignee(issue.Assignee),
		Body:      issue.GetBody(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
		ClosedAt:  timePtr(issue.ClosedAt),
		Draft:     issue.GetDraft(),
	}

	if issue.IsPullRequest() {
		item.Kind = domain.KindPullRequest
	}

	return item, nil
}

func convertPullRequest(pr *github.PullRequest) (*domain.Item, error) {
	if pr.GetNumber() == 0 || pr.GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("%w: pull request without number or author", domain.ErrMalformedRecord)
	}

	reviewers := make([]domain.User, 0, len(pr.RequestedReviewers))
	for _, reviewer := range pr.RequestedReviewers {
		reviewers = append(reviewers, convertUser(reviewer))
	}

	return &domain.Item{
		Kind:               domain.KindPullRequest,
		Number:             pr.GetNumber(),
		Title:              pr.GetTitle(),
		User:               convertUser(pr.GetUser()),
		Labels:             convertLabels(pr.Labels),
		URL:                pr.GetURL(),
		HTMLURL:            pr.GetHTMLURL(),
		Assignee:           convertAssignee(pr.Assignee),
		Body:               pr.GetBody(),
		CreatedAt:          pr.GetCreatedAt().Time,
		UpdatedAt:          pr.GetUpdatedAt().Time,
		ClosedAt:           timePtr(pr.ClosedAt),
		MergedAt:           timePtr(pr.MergedAt),
		Draft:              pr.GetDraft(),
		RequestedReviewers: reviewers,
		Reviews:            []domain.Review{},
	}, nil
}

func convertReview(review *github.PullRequestReview) domain.Review {
	return domain.Review{
		User:        convertUser(review.GetUser()),
		State:       domain.ReviewState(review.GetState()),
		Body:        review.GetBody(),
		SubmittedAt: timePtr(review.SubmittedAt),
	}
}

func convertUser(user *github.User) domain.User {
	return domain.User{
		Login:   user.GetLogin(),
		HTMLURL: user.GetHTMLURL(),
	}
}

func convertAssignee(user *github.User) *domain.User {
	if user == nil {
		return nil
	}

	assignee := convertUser(user)

	return &assignee
}

func convertLabels(labels []*github.Label) []domain.Label {
	result := make([]domain.Label, 0, len(labels))
	for _, label := range labels {
		result = append(result, domain.Label{Name: label.GetName()})
	}

	return result
}

func timePtr(ts *github.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}

	t := ts.Time

	return &t
}
