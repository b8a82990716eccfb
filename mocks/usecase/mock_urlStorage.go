package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
)

// MockUrlStorage is a mock of the usecase storage dependency.
type MockUrlStorage struct {
	mock.Mock
}

// NewMockUrlStorage creates a mock whose expectations are asserted when the
// test finishes.
func NewMockUrlStorage(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUrlStorage {
	m := &MockUrlStorage{}
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

func (m *MockUrlStorage) GetByShortCode(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, shortCode))
}

func (m *MockUrlStorage) Exists(ctx context.Context, shortCode string) (bool, error) {
	ret := m.Called(ctx, shortCode)
	return ret.Bool(0), ret.Error(1)
}

func (m *MockUrlStorage) ListAll(ctx context.Context) ([]entity.ShortURL, error) {
	ret := m.Called(ctx)

	var urls []entity.ShortURL
	if v := ret.Get(0); v != nil {
		urls = v.([]entity.ShortURL)
	}

	return urls, ret.Error(1)
}

func (m *MockUrlStorage) Insert(ctx context.Context, u *entity.ShortURL) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, u))
}

func (m *MockUrlStorage) Upsert(ctx context.Context, u *entity.ShortURL) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, u))
}

func (m *MockUrlStorage) Update(ctx context.Context, shortCode string, changes entity.URLChanges) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, shortCode, changes))
}

func (m *MockUrlStorage) Archive(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, shortCode))
}

func (m *MockUrlStorage) IncrementClicks(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	return urlResult(m.Called(ctx, shortCode))
}

func (m *MockUrlStorage) RecordClick(ctx context.Context, shortCode string) error {
	return m.Called(ctx, shortCode).Error(0)
}

func (m *MockUrlStorage) QueryClicksByShortCode(ctx context.Context, shortCode string) ([]entity.ClickEvent, error) {
	ret := m.Called(ctx, shortCode)

	var events []entity.ClickEvent
	if v := ret.Get(0); v != nil {
		events = v.([]entity.ClickEvent)
	}

	return events, ret.Error(1)
}
