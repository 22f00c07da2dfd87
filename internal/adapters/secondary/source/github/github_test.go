package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(t *testing.T, handler http.Handler) *Source {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	source, err := NewSource(server.Client(), server.URL, nil)
	require.NoError(t, err)

	return source
}

func TestSource_SearchItems(t *testing.T) {
	q := query.OpenItems("org/repo", query.KindAny, nil, []string{"Needs Discussion"}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, q.String(), r.URL.Query().Get("q"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("page") == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/search/issues?page=2>; rel="next"`, r.Host))
			_, _ = fmt.Fprint(w, `{"total_count": 2, "items": [
				{"number": 1, "title": "Bug", "user": {"login": "alice"},
				 "labels": [{"name": "Needs Discussion"}], "html_url": "https://github.com/org/repo/issues/1",
				 "created_at": "2022-08-02T10:00:00Z"}
			]}`)

			return
		}

		_, _ = fmt.Fprint(w, `{"total_count": 2, "items": [
			{"number": 2, "title": "Feature", "user": {"login": "bob"},
			 "labels": [{"name": "Needs Discussion"}], "assignee": {"login": "carol"},
			 "pull_request": {"url": "https://api.github.com/repos/org/repo/pulls/2"}}
		]}`)
	})

	source := newTestSource(t, mux)

	items, err := source.SearchItems(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, domain.KindIssue, items[0].Kind)
	assert.Equal(t, 1, items[0].Number)
	assert.Equal(t, "alice", items[0].User.Login)
	assert.True(t, items[0].HasLabel("Needs Discussion"))
	assert.Nil(t, items[0].Assignee)
	assert.Equal(t, 2022, items[0].CreatedAt.Year())

	assert.Equal(t, domain.KindPullRequest, items[1].Kind)
	require.NotNil(t, items[1].Assignee)
	assert.Equal(t, "carol", items[1].Assignee.Login)
}

func TestSource_SearchItems_Malformed(t *testing.T) {
	source := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"items": [{"title": "no number"}]}`)
	}))

	_, err := source.SearchItems(context.Background(), query.OpenItems("org/repo", query.KindIssue, nil, nil, nil))

	require.ErrorIs(t, err, domain.ErrMalformedRecord)
}

func TestSource_AuthenticationErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		headers     map[string]string
		body        string
		isAuth      bool
		rateLimited bool
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"message": "Bad credentials"}`,
			isAuth: true,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"message": "Resource not accessible by integration"}`,
			isAuth: true,
		},
		{
			name:        "primary rate limit",
			status:      http.StatusForbidden,
			headers:     map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Limit": "5000"},
			body:        `{"message": "API rate limit exceeded"}`,
			rateLimited: true,
		},
		{
			name:   "secondary rate limit",
			status: http.StatusForbidden,
			body: `{"message": "You have exceeded a secondary rate limit",` +
				` "documentation_url": "https://docs.github.com/rest/overview/rate-limits-for-the-rest-api#about-secondary-rate-limits"}`,
			rateLimited: true,
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"message": "Not Found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				for key, value := range tt.headers {
					w.Header().Set(key, value)
				}
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))

			_, err := source.GetPullRequest(context.Background(), "org/repo", 1)

			require.Error(t, err)
			assert.Equal(t, tt.isAuth, errors.Is(err, domain.ErrAuthentication))
			assert.Equal(t, tt.rateLimited, errors.Is(err, domain.ErrRateLimited))
		})
	}
}

func TestSource_GetPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/org/repo/pulls/7", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{
			"number": 7, "title": "Add thing", "draft": true,
			"user": {"login": "alice", "html_url": "https://github.com/alice"},
			"labels": [{"name": "WIP"}],
			"requested_reviewers": [{"login": "bob"}],
			"created_at": "2022-08-02T10:00:00Z",
			"merged_at": "2022-08-05T12:00:00Z"
		}`)
	})

	source := newTestSource(t, mux)

	pr, err := source.GetPullRequest(context.Background(), "org/repo", 7)
	require.NoError(t, err)

	assert.Equal(t, domain.KindPullRequest, pr.Kind)
	assert.Equal(t, 7, pr.Number)
	assert.True(t, pr.Draft)
	assert.True(t, pr.HasLabel("WIP"))
	assert.Equal(t, "https://github.com/alice", pr.User.HTMLURL)
	require.Len(t, pr.RequestedReviewers, 1)
	assert.Equal(t, "bob", pr.RequestedReviewers[0].Login)
	require.NotNil(t, pr.MergedAt)
	assert.Equal(t, 5, pr.MergedAt.Day())
	assert.Nil(t, pr.ClosedAt)
}

func TestSource_GetPullRequest_InvalidRepo(t *testing.T) {
	source, err := NewSource(http.DefaultClient, "", nil)
	require.NoError(t, err)

	_, err = source.GetPullRequest(context.Background(), "repo", 1)

	require.ErrorIs(t, err, domain.ErrInvalidSpec)
}

func TestSource_ListReviews(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/org/repo/pulls/7/reviews", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `[
			{"user": {"login": "bob"}, "state": "APPROVED", "submitted_at": "2022-08-04T09:00:00Z"},
			{"user": {"login": "carol"}, "state": "CHANGES_REQUESTED", "body": "nope"}
		]`)
	})

	source := newTestSource(t, mux)

	reviews, err := source.ListReviews(context.Background(), "org/repo", 7)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	assert.Equal(t, domain.ReviewApproved, reviews[0].State)
	require.NotNil(t, reviews[0].SubmittedAt)
	assert.Equal(t, domain.ReviewChangesRequested, reviews[1].State)
	assert.Equal(t, "nope", reviews[1].Body)
	assert.Nil(t, reviews[1].SubmittedAt)
}

func TestNewHTTPClient(t *testing.T) {
	var got string

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer server.Close()

	resp, err := NewHTTPClient(context.Background(), "secret").Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer secret", got)
}
