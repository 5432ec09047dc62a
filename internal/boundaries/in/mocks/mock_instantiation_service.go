package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockInstantiationService is a mock of in.InstantiationService.
type MockInstantiationService struct {
	mock.Mock
}

// NewMockInstantiationService creates a mock that asserts its expectations on cleanup.
func NewMockInstantiationService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockInstantiationService {
	m := &MockInstantiationService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockInstantiationService) Instantiate(ctx context.Context, serviceUUID string) (string, error) {
	args := m.Called(ctx, serviceUUID)
	return args.String(0), args.Error(1)
}

func (m *MockInstantiationService) ListInstances(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}
