package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/core/query"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const (
	perPageLimit = 100

	stateOpened = "opened"
	stateMerged = "merged"
)

// Source implements the app.Source interface for GitLab.
// Repositories are addressed by their full project path.
type Source struct {
	client *gitlab.Client
}

// NewSource creates a new GitLab source instance.
func NewSource(client *gitlab.Client) *Source {
	return &Source{
		client: client,
	}
}

// SearchItems translates the query into merge request and issue list calls.
func (s *Source) SearchItems(ctx context.Context, q query.Query) ([]*domain.Item, error) {
	items := make([]*domain.Item, 0)

	if q.Kind != query.KindIssue {
		mrs, err := s.listMergeRequests(ctx, q)
		if err != nil {
			return nil, err
		}
		items = append(items, mrs...)
	}

	if q.Kind != query.KindPullRequest && q.Merged == nil {
		issues, err := s.listIssues(ctx, q)
		if err != nil {
			return nil, err
		}
		items = append(items, issues...)
	}

	return items, nil
}

func (s *Source) listMergeRequests(ctx context.Context, q query.Query) ([]*domain.Item, error) {
	opts := &gitlab.ListProjectMergeRequestsOptions{
		ListOptions: gitlab.ListOptions{
			PerPage: perPageLimit,
		},
		Labels:    labelOptions(q.Labels),
		NotLabels: labelOptions(q.ExcludedLabels),
	}

	if q.Open {
		opts.State = gitlab.Ptr(stateOpened)
	}
	if q.Merged != nil {
		opts.State = gitlab.Ptr(stateMerged)
		opts.UpdatedAfter = gitlab.Ptr(startOfDay(q.Merged.From))
	}
	if q.Created != nil {
		opts.CreatedAfter = gitlab.Ptr(startOfDay(q.Created.From))
		opts.CreatedBefore = gitlab.Ptr(endOfDay(q.Created.To))
	}

	items := make([]*domain.Item, 0)

	for {
		mrs, resp, err := s.client.MergeRequests.ListProjectMergeRequests(q.Repo, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list merge requests: %w", classify(resp, err))
		}

		for _, mr := range mrs {
			// The list API cannot filter on merge date.
			if q.Merged != nil && (mr.MergedAt == nil || !q.Merged.Contains(*mr.MergedAt)) {
				continue
			}

			item, err := convertMergeRequest(mr)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return items, nil
}

func (s *Source) listIssues(ctx context.Context, q query.Query) ([]*domain.Item, error) {
	opts := &gitlab.ListProjectIssuesOptions{
		ListOptions: gitlab.ListOptions{
			PerPage: perPageLimit,
		},
		Labels:    labelOptions(q.Labels),
		NotLabels: labelOptions(q.ExcludedLabels),
	}

	if q.Open {
		opts.State = gitlab.Ptr(stateOpened)
	}
	if q.Created != nil {
		opts.CreatedAfter = gitlab.Ptr(startOfDay(q.Created.From))
		opts.CreatedBefore = gitlab.Ptr(endOfDay(q.Created.To))
	}

	items := make([]*domain.Item, 0)

	for {
		issues, resp, err := s.client.Issues.ListProjectIssues(q.Repo, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", classify(resp, err))
		}

		for _, issue := range issues {
			item, err := convertIssue(issue)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return items, nil
}

// GetPullRequest retrieves a merge request by project path and IID.
func (s *Source) GetPullRequest(ctx context.Context, repo string, number int) (*domain.Item, error) {
	mr, resp, err := s.client.MergeRequests.GetMergeRequest(repo, number, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get merge request: %w", classify(resp, err))
	}

	item, err := convertMergeRequest(&mr.BasicMergeRequest)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// ListReviews returns the approvals of a merge request as approving reviews.
// GitLab does not record when an approval was given.
func (s *Source) ListReviews(ctx context.Context, repo string, number int) ([]domain.Review, error) {
	approvals, resp, err := s.client.MergeRequests.GetMergeRequestApprovals(repo, number, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get merge request approvals: %w", classify(resp, err))
	}

	reviews := make([]domain.Review, 0, len(approvals.ApprovedBy))
	for _, approval := range approvals.ApprovedBy {
		if approval.User == nil {
			continue
		}

		reviews = append(reviews, domain.Review{
			User:  convertUser(approval.User),
			State: domain.ReviewApproved,
		})
	}

	return reviews, nil
}

func classify(resp *gitlab.Response, err error) error {
	if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	}

	return err
}

func convertMergeRequest(mr *gitlab.BasicMergeRequest) (*domain.Item, error) {
	if mr.IID == 0 || mr.Author == nil {
		return nil, fmt.Errorf("%w: merge request without iid or author", domain.ErrMalformedRecord)
	}

	reviewers := make([]domain.User, 0, len(mr.Reviewers))
	for _, reviewer := range mr.Reviewers {
		if reviewer != nil {
			reviewers = append(reviewers, convertUser(reviewer))
		}
	}

	item := &domain.Item{
		Kind:               domain.KindPullRequest,
		Number:             mr.IID,
		Title:              mr.Title,
		User:               convertUser(mr.Author),
		Labels:             convertLabels(mr.Labels),
		URL:                mr.WebURL,
		HTMLURL:            mr.WebURL,
		Body:               mr.Description,
		ClosedAt:           mr.ClosedAt,
		MergedAt:           mr.MergedAt,
		Draft:              mr.Draft,
		RequestedReviewers: reviewers,
		Reviews:            []domain.Review{},
	}

	if mr.Assignee != nil {
		assignee := convertUser(mr.Assignee)
		item.Assignee = &assignee
	}
	if mr.CreatedAt != nil {
		item.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		item.UpdatedAt = *mr.UpdatedAt
	}
	if item.ClosedAt == nil && item.MergedAt != nil {
		item.ClosedAt = item.MergedAt
	}

	return item, nil
}

func convertIssue(issue *gitlab.Issue) (*domain.Item, error) {
	if issue.IID == 0 || issue.Author == nil {
		return nil, fmt.Errorf("%w: issue without iid or author", domain.ErrMalformedRecord)
	}

	item := &domain.Item{
		Kind:     domain.KindIssue,
		Number:   issue.IID,
		Title:    issue.Title,
		User:     domain.User{Login: issue.Author.Username, HTMLURL: issue.Author.WebURL},
		Labels:   convertLabels(issue.Labels),
		URL:      issue.WebURL,
		HTMLURL:  issue.WebURL,
		Body:     issue.Description,
		ClosedAt: issue.ClosedAt,
	}

	if issue.Assignee != nil {
		item.Assignee = &domain.User{Login: issue.Assignee.Username, HTMLURL: issue.Assignee.WebURL}
	}
	if issue.CreatedAt != nil {
		item.CreatedAt = *issue.CreatedAt
	}
	if issue.UpdatedAt != nil {
		item.UpdatedAt = *issue.UpdatedAt
	}

	return item, nil
}

func convertUser(user *gitlab.BasicUser) domain.User {
	return domain.User{
		Login:   user.Username,
		HTMLURL: user.WebURL,
	}
}

func convertLabels(labels gitlab.Labels) []domain.Label {
	result := make([]domain.Label, 0, len(labels))
	for _, name := range labels {
		result = append(result, domain.Label{Name: name})
	}

	return result
}

func labelOptions(labels []string) *gitlab.LabelOptions {
	if len(labels) == 0 {
		return nil
	}

	opts := gitlab.LabelOptions(labels)

	return &opts
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
