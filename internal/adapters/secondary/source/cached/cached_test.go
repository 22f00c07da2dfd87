package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/denchenko/mtng/internal/adapters/secondary/cache"
	"github.com/denchenko/mtng/internal/adapters/secondary/source/mocks"
	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNamespace = Namespace("github", "")

type brokenCache struct{}

func (brokenCache) Get(string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (brokenCache) Put(string, []byte, time.Duration) error {
	return errors.New("disk on fire")
}

func TestNewSource(t *testing.T) {
	source := NewSource(&mocks.MockSource{}, cache.NewInMemoryCache(), testNamespace, 0, nil)

	assert.Equal(t, DefaultTTL, source.ttl)
	assert.NotNil(t, source.logger)
}

func TestSource_SearchItemsIsCached(t *testing.T) {
	ctx := context.Background()
	inner := &mocks.MockSource{}
	q := query.OpenItems("org/repo", query.KindIssue, nil, []string{"Stale"}, nil)

	inner.On("SearchItems", ctx, q).Return([]*domain.Item{{Kind: domain.KindIssue, Number: 3}}, nil).Once()

	source := NewSource(inner, cache.NewInMemoryCache(), testNamespace, time.Minute, nil)

	first, err := source.SearchItems(ctx, q)
	require.NoError(t, err)

	second, err := source.SearchItems(ctx, q)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	assert.Equal(t, first[0].Number, second[0].Number)
	assert.Equal(t, domain.KindIssue, second[0].Kind)
	inner.AssertNumberOfCalls(t, "SearchItems", 1)
}

func TestSource_DistinctArgumentsAreDistinctEntries(t *testing.T) {
	ctx := context.Background()
	inner := &mocks.MockSource{}

	inner.On("GetPullRequest", ctx, "org/repo", 1).Return(&domain.Item{Number: 1}, nil).Once()
	inner.On("GetPullRequest", ctx, "org/repo", 2).Return(&domain.Item{Number: 2}, nil).Once()
	inner.On("ListReviews", ctx, "org/repo", 1).Return([]domain.Review{{State: domain.ReviewApproved}}, nil).Once()

	source := NewSource(inner, cache.NewInMemoryCache(), testNamespace, time.Minute, nil)

	for range 2 {
		pr, err := source.GetPullRequest(ctx, "org/repo", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, pr.Number)

		pr, err = source.GetPullRequest(ctx, "org/repo", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, pr.Number)

		reviews, err := source.ListReviews(ctx, "org/repo", 1)
		require.NoError(t, err)
		assert.Len(t, reviews, 1)
	}

	inner.AssertExpectations(t)
}

func TestSource_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	inner := &mocks.MockSource{}
	store := cache.NewInMemoryCache()

	key, err := cache.Key(opGetPullRequest, testNamespace, "org/repo", 1)
	require.NoError(t, err)
	require.NoError(t, store.Put(key, []byte("{not json"), time.Minute))

	inner.On("GetPullRequest", ctx, "org/repo", 1).Return(&domain.Item{Number: 1, Title: "fresh"}, nil).Once()

	source := NewSource(inner, store, testNamespace, time.Minute, nil)

	pr, err := source.GetPullRequest(ctx, "org/repo", 1)
	require.NoError(t, err)
	assert.Equal(t, "fresh", pr.Title)

	pr, err = source.GetPullRequest(ctx, "org/repo", 1)
	require.NoError(t, err)
	assert.Equal(t, "fresh", pr.Title)
	inner.AssertNumberOfCalls(t, "GetPullRequest", 1)
}

func TestSource_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	inner := &mocks.MockSource{}

	inner.On("ListReviews", ctx, "org/repo", 1).Return([]domain.Review{}, nil)

	source := NewSource(inner, brokenCache{}, testNamespace, time.Minute, nil)

	for range 2 {
		reviews, err := source.ListReviews(ctx, "org/repo", 1)
		require.NoError(t, err)
		assert.Empty(t, reviews)
	}

	inner.AssertNumberOfCalls(t, "ListReviews", 2)
}

func TestSource_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &mocks.MockSource{}
	q := query.OpenItems("org/repo", query.KindPullRequest, nil, nil, nil)

	inner.On("SearchItems", ctx, q).Return(nil, domain.ErrAuthentication).Once()
	inner.On("SearchItems", ctx, q).Return([]*domain.Item{}, nil).Once()

	source := NewSource(inner, cache.NewInMemoryCache(), testNamespace, time.Minute, nil)

	_, err := source.SearchItems(ctx, q)
	require.ErrorIs(t, err, domain.ErrAuthentication)

	items, err := source.SearchItems(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSource_NamespacesDoNotShareEntries(t *testing.T) {
	ctx := context.Background()
	store, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Shutdown() })

	q := query.OpenItems("org/repo", query.KindPullRequest, nil, nil, nil)

	githubInner := &mocks.MockSource{}
	githubInner.On("SearchItems", ctx, q).Return([]*domain.Item{{Kind: domain.KindPullRequest, Number: 101, Title: "from github"}}, nil).Once()

	gitlabInner := &mocks.MockSource{}
	gitlabInner.On("SearchItems", ctx, q).Return([]*domain.Item{{Kind: domain.KindPullRequest, Number: 7, Title: "from gitlab"}}, nil).Once()

	enterpriseInner := &mocks.MockSource{}
	enterpriseInner.On("SearchItems", ctx, q).Return([]*domain.Item{}, nil).Once()

	githubSource := NewSource(githubInner, store, Namespace("github", ""), time.Minute, nil)
	gitlabSource := NewSource(gitlabInner, store, Namespace("gitlab", ""), time.Minute, nil)
	enterpriseSource := NewSource(enterpriseInner, store, Namespace("github", "https://ghe.example.com/api/v3/"), time.Minute, nil)

	items, err := githubSource.SearchItems(ctx, q)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "from github", items[0].Title)

	items, err = gitlabSource.SearchItems(ctx, q)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "from gitlab", items[0].Title)

	items, err = enterpriseSource.SearchItems(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, items)

	githubInner.AssertNumberOfCalls(t, "SearchItems", 1)
	gitlabInner.AssertNumberOfCalls(t, "SearchItems", 1)
	enterpriseInner.AssertNumberOfCalls(t, "SearchItems", 1)
}
