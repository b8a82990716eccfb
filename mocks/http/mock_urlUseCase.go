package http

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
	"github.com/vadimbarashkov/scheduled-shortener/internal/usecase"
)

// MockUrlUseCase is a mock of the delivery layer's use case dependency.
type MockUrlUseCase struct {
	mock.Mock
}

// NewMockUrlUseCase creates a mock whose expectations are asserted when the
// test finishes.
func NewMockUrlUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUrlUseCase {
	m := &MockUrlUseCase{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func urlResult(ret mock.Arguments) (*entity.ShortURL, error) {
	var u *entity.ShortURL
	if v := ret.Get(0); v != nil {
		u = v.(*entity.ShortURL)
	}
	return u, ret.Error(1)
}

func (m *MockUrlUseCase) ShortenURL(ctx context.Context, in usecase.ShortenInput) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, in))
}

func (m *MockUrlUseCase) Redirect(ctx context.Context, shortCode string, now time.Time) (*usecase.Redirect, error) {
	ret := m.Called(ctx, shortCode, now)

	var res *usecase.Redirect
	if v := ret.Get(0); v != nil {
		res = v.(*usecase.Redirect)
	}

	return res, ret.Error(1)
}

func (m *MockUrlUseCase) GetURL(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, shortCode))
}

func (m *MockUrlUseCase) ModifyURL(ctx context.Context, shortCode string, changes entity.URLChanges) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, shortCode, changes))
}

func (m *MockUrlUseCase) ArchiveURL(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, shortCode))
}

func (m *MockUrlUseCase) ListURLs(ctx context.Context, includeArchived bool) ([]entity.ShortURL, error) {
	ret := m.Called(ctx, includeArchived)

	var urls []entity.ShortURL
	if v := ret.Get(0); v != nil {
		urls = v.([]entity.ShortURL)
	}

	return urls, ret.Error(1)
}

func (m *MockUrlUseCase) ClickStatsByDay(ctx context.Context, shortCode string) (*entity.ClickStats, error) {
	ret := m.Called(ctx, shortCode)

	var stats *entity.ClickStats
	if v := ret.Get(0); v != nil {
		stats = v.(*entity.ClickStats)
	}

	return stats, ret.Error(1)
}
