package mocks

import (
	"context"

	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/core/query"
	"github.com/stretchr/testify/mock"
)

// MockSource is a mock implementation of app.Source.
type MockSource struct {
	mock.Mock
}

// SearchItems mocks the SearchItems method.
func (m *MockSource) SearchItems(ctx context.Context, q query.Query) ([]*domain.Item, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*domain.Item), args.Error(1)
}

// GetPullRequest mocks the GetPullRequest method.
func (m *MockSource) GetPullRequest(ctx context.Context, repo string, number int) (*domain.Item, error) {
	args := m.Called(ctx, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Item), args.Error(1)
}

// ListReviews mocks the ListReviews method.
func (m *MockSource) ListReviews(ctx context.Context, repo string, number int) ([]domain.Review, error) {
	args := m.Called(ctx, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Review), args.Error(1)
}

// MockAgendaProvider is a mock implementation of app.AgendaProvider.
type MockAgendaProvider struct {
	mock.Mock
}

// Contributions mocks the Contributions method.
func (m *MockAgendaProvider) Contributions(ctx context.Context, eventURL string) ([]domain.Contribution, error) {
	args := m.Called(ctx, eventURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Contribution), args.Error(1)
}
