package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCodeGenerator is a mock of usecase.CodeGenerator.
type MockCodeGenerator struct {
	mock.Mock
}

func NewMockCodeGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCodeGenerator {
	m := &MockCodeGenerator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCodeGenerator) Generate(ctx context.Context) (string, error) {
	ret := m.Called(ctx)
	return ret.String(0), ret.Error(1)
}
